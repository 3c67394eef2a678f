package extract

import (
	"strings"
	"time"

	"github.com/joshsymonds/parceltrack/internal/gmail"
	"github.com/joshsymonds/parceltrack/internal/store"
)

// Extractor turns fetched messages into tracking records. Rules are
// evaluated independently against subject and body; the destination
// table maps sender addresses (or bare domains) to purchasing-group
// labels.
type Extractor struct {
	Rules        []Rule
	Destinations map[string]string
	Clock        func() time.Time
}

// New returns an Extractor. A nil rules slice selects DefaultRules.
func New(rules []Rule, destinations map[string]string) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Extractor{Rules: rules, Destinations: destinations, Clock: time.Now}
}

// Extract returns zero or more records for msg. A message matching no
// rule is an empty result, not an error. Distinct numbers each get a
// record sharing the message's sender and timestamp; the same number
// found twice in one message collapses to a single record.
func (e *Extractor) Extract(msg gmail.Message) []store.TrackingRecord {
	text := msg.Subject + "\n" + msg.Body
	ts := msg.Date
	if ts.IsZero() {
		ts = e.Clock()
	}
	dest := e.destinationFor(msg.From)

	var records []store.TrackingRecord
	seen := map[string]bool{}
	for _, rule := range e.Rules {
		for _, match := range rule.Pattern.FindAllString(text, -1) {
			if rule.Validate != nil && !rule.Validate(match) {
				continue
			}
			if seen[match] {
				continue
			}
			seen[match] = true
			records = append(records, store.TrackingRecord{
				TrackingNumber: match,
				Carrier:        rule.Carrier,
				Destination:    dest,
				Sender:         msg.From,
				Timestamp:      ts,
			})
		}
	}
	return records
}

// destinationFor resolves the configured purchasing-group label for a
// sender: exact address first, then the bare domain.
func (e *Extractor) destinationFor(sender string) string {
	addr := normalizeAddress(sender)
	if label, ok := e.Destinations[addr]; ok {
		return label
	}
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		if label, ok := e.Destinations[addr[i+1:]]; ok {
			return label
		}
	}
	return ""
}

// normalizeAddress reduces `Name <user@host>` to `user@host`.
func normalizeAddress(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if j := strings.IndexByte(s[i:], '>'); j > 0 {
			return s[i+1 : i+j]
		}
	}
	return s
}
