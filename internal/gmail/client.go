package gmail

import (
	"context"
	"errors"
)

// ErrAuth marks a credential rejected by the provider at call time, e.g.
// a revoked scope. Not recoverable without re-authorization.
var ErrAuth = errors.New("mail provider rejected credentials")

// ErrNetwork marks a transport failure. The whole run is safe to retry.
var ErrNetwork = errors.New("mail provider unreachable")

// Client is the narrow mailbox surface required by parceltrack.
type Client interface {
	// List returns one page of message IDs matching q.
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	// Fetch retrieves the full message for id.
	Fetch(ctx context.Context, id MessageID) (Message, error)
}
