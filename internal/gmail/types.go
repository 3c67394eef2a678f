package gmail

import "time"

// MessageID identifies a message within the provider's mailbox.
type MessageID string

// Query is a raw provider search expression. It is passed to the
// provider verbatim; parceltrack never interprets it.
type Query struct {
	Raw string
}

// Message is one fetched mail message. Immutable once fetched; owned by
// the caller for the duration of a single scan.
type Message struct {
	ID      MessageID
	From    string
	To      string
	Subject string
	Date    time.Time
	Body    string // first text/plain part, or stripped text/html fallback
}

// ListPage is one page of search results.
type ListPage struct {
	IDs           []MessageID
	NextPageToken string
}
