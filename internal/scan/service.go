package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	gc "github.com/joshsymonds/parceltrack/internal/gmail"
	"github.com/joshsymonds/parceltrack/internal/rate"
	"github.com/joshsymonds/parceltrack/internal/store"
)

const defaultMaxResults = 75

// Extractor produces records from one fetched message.
type Extractor interface {
	Extract(msg gc.Message) []store.TrackingRecord
}

// RecordStore is the append-only sink for extracted records.
type RecordStore interface {
	Append(records []store.TrackingRecord) error
}

// Spec describes one pipeline invocation.
type Spec struct {
	Query      string
	PageSize   int
	MaxResults int
	DryRun     bool
}

// Summary aggregates one run.
type Summary struct {
	Scanned   int            `json:"scanned"`
	Matched   int            `json:"matched"`
	Records   int            `json:"records"`
	ByCarrier map[string]int `json:"by_carrier,omitempty"`
	Numbers   []string       `json:"numbers,omitempty"`
}

// Service executes the scan pipeline: search, fetch, extract, append.
type Service struct {
	Client    gc.Client
	Extractor Extractor
	Store     RecordStore
	Limiter   rate.Limiter
	Logger    *slog.Logger
}

// NewService constructs a Service with sane defaults.
func NewService(client gc.Client, extractor Extractor, recs RecordStore, limiter rate.Limiter, logger *slog.Logger) *Service {
	if limiter == nil {
		limiter = rate.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client:    client,
		Extractor: extractor,
		Store:     recs,
		Limiter:   limiter,
		Logger:    logger,
	}
}

// Run executes the pipeline once. It fails fast: the first provider or
// store error aborts the run; records appended before the failure stay
// in the store and will simply be found again next time.
func (s *Service) Run(ctx context.Context, spec Spec) (Summary, error) {
	if strings.TrimSpace(spec.Query) == "" {
		return Summary{}, fmt.Errorf("query must not be empty")
	}
	pageSize := spec.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 500
	}
	maxResults := spec.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s.Logger.InfoContext(ctx, "scanning mailbox",
		slog.String("query", spec.Query), slog.Bool("dry_run", spec.DryRun))

	ids, err := s.listAll(ctx, gc.Query{Raw: spec.Query}, pageSize, maxResults)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{ByCarrier: map[string]int{}}
	for _, id := range ids {
		if err := s.Limiter.Wait(ctx); err != nil {
			return sum, err
		}
		msg, err := s.Client.Fetch(ctx, id)
		if err != nil {
			return sum, fmt.Errorf("fetch %s: %w", id, err)
		}
		sum.Scanned++

		records := s.Extractor.Extract(msg)
		if len(records) == 0 {
			s.Logger.DebugContext(ctx, "no tracking numbers", slog.String("message", string(id)))
			continue
		}
		sum.Matched++
		if !spec.DryRun {
			if err := s.Store.Append(records); err != nil {
				return sum, fmt.Errorf("append records: %w", err)
			}
		}
		for _, r := range records {
			sum.Records++
			sum.ByCarrier[r.Carrier]++
			sum.Numbers = append(sum.Numbers, r.TrackingNumber)
			s.Logger.InfoContext(ctx, "tracking number found",
				slog.String("number", r.TrackingNumber),
				slog.String("carrier", r.Carrier),
				slog.String("destination", r.Destination),
				slog.String("sender", r.Sender))
		}
	}
	return sum, nil
}

// listAll drains the provider's paginated search into one finite ID
// sequence, capped at maxResults.
func (s *Service) listAll(ctx context.Context, q gc.Query, pageSize, maxResults int) ([]gc.MessageID, error) {
	var ids []gc.MessageID
	token := ""
	for {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if remaining := maxResults - len(ids); remaining < pageSize {
			pageSize = remaining
		}
		page, err := s.Client.List(ctx, q, token, pageSize)
		if err != nil {
			return nil, fmt.Errorf("search mailbox: %w", err)
		}
		ids = append(ids, page.IDs...)
		if page.NextPageToken == "" || len(ids) >= maxResults {
			break
		}
		token = page.NextPageToken
	}
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// HumanSummary renders a concise CLI summary, ending with the newly
// found tracking numbers, one per line.
func (s Summary) HumanSummary() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "parceltrack scan — %d messages scanned, %d with shipments, %d records\n",
		s.Scanned, s.Matched, s.Records)
	carriers := make([]string, 0, len(s.ByCarrier))
	for c := range s.ByCarrier {
		carriers = append(carriers, c)
	}
	sort.Strings(carriers)
	for _, c := range carriers {
		fmt.Fprintf(b, "  %s: %d\n", c, s.ByCarrier[c])
	}
	for _, n := range s.Numbers {
		fmt.Fprintln(b, n)
	}
	return b.String()
}
