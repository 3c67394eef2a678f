package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joshsymonds/parceltrack/internal/extract"
	"github.com/joshsymonds/parceltrack/internal/gmail"
	"github.com/joshsymonds/parceltrack/internal/store"
)

type fakeClient struct {
	listPages   []gmail.ListPage
	listErr     error
	listQueries []string
	msgs        map[gmail.MessageID]gmail.Message
	fetchErrs   map[gmail.MessageID]error
	fetched     []gmail.MessageID
}

func (f *fakeClient) List(ctx context.Context, q gmail.Query, pageToken string, pageSize int) (gmail.ListPage, error) {
	_ = ctx
	_ = pageToken
	_ = pageSize
	f.listQueries = append(f.listQueries, q.Raw)
	if f.listErr != nil {
		return gmail.ListPage{}, f.listErr
	}
	if len(f.listPages) == 0 {
		return gmail.ListPage{}, nil
	}
	page := f.listPages[0]
	f.listPages = f.listPages[1:]
	return page, nil
}

func (f *fakeClient) Fetch(ctx context.Context, id gmail.MessageID) (gmail.Message, error) {
	_ = ctx
	f.fetched = append(f.fetched, id)
	if err := f.fetchErrs[id]; err != nil {
		return gmail.Message{}, err
	}
	return f.msgs[id], nil
}

type fakeStore struct {
	batches   [][]store.TrackingRecord
	appendErr error
}

func (f *fakeStore) Append(records []store.TrackingRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.batches = append(f.batches, append([]store.TrackingRecord(nil), records...))
	return nil
}

var msgTime = time.Date(2025, time.June, 3, 14, 30, 0, 0, time.UTC)

func upsMessage(id gmail.MessageID) gmail.Message {
	return gmail.Message{
		ID:      id,
		From:    "shipping@carrierA.example",
		Subject: "Your package has shipped",
		Date:    msgTime,
		Body:    "Track it: 1Z999AA10123456784",
	}
}

func plainMessage(id gmail.MessageID) gmail.Message {
	return gmail.Message{
		ID:      id,
		From:    "newsletter@shop.example",
		Subject: "Weekly deals",
		Date:    msgTime,
		Body:    "Nothing shipping here.",
	}
}

func newTestService(client *fakeClient, recs *fakeStore) *Service {
	return NewService(client, extract.New(nil, nil), recs, nil, slogDiscard())
}

func TestRunRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(&fakeClient{}, &fakeStore{})
	if _, err := svc.Run(context.Background(), Spec{Query: "  "}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestRunScansAndAppends(t *testing.T) {
	client := &fakeClient{
		listPages: []gmail.ListPage{{IDs: []gmail.MessageID{"a", "b"}}},
		msgs: map[gmail.MessageID]gmail.Message{
			"a": upsMessage("a"),
			"b": plainMessage("b"),
		},
	}
	recs := &fakeStore{}
	svc := newTestService(client, recs)

	sum, err := svc.Run(context.Background(), Spec{Query: "label:shipments"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sum.Scanned != 2 || sum.Matched != 1 || sum.Records != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.ByCarrier[extract.CarrierUPS] != 1 {
		t.Fatalf("by-carrier = %v", sum.ByCarrier)
	}
	if len(recs.batches) != 1 || len(recs.batches[0]) != 1 {
		t.Fatalf("store batches = %v", recs.batches)
	}
	got := recs.batches[0][0]
	if got.TrackingNumber != "1Z999AA10123456784" || got.Sender != "shipping@carrierA.example" {
		t.Fatalf("record = %+v", got)
	}
	if len(client.listQueries) != 1 || client.listQueries[0] != "label:shipments" {
		t.Fatalf("query passed to provider = %v", client.listQueries)
	}
}

func TestRunPaginatesAndCaps(t *testing.T) {
	client := &fakeClient{
		listPages: []gmail.ListPage{
			{IDs: []gmail.MessageID{"a", "b"}, NextPageToken: "next"},
			{IDs: []gmail.MessageID{"c", "d"}},
		},
		msgs: map[gmail.MessageID]gmail.Message{
			"a": plainMessage("a"), "b": plainMessage("b"), "c": plainMessage("c"),
		},
	}
	svc := newTestService(client, &fakeStore{})

	sum, err := svc.Run(context.Background(), Spec{Query: "label:shipments", MaxResults: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sum.Scanned != 3 {
		t.Fatalf("scanned = %d, want 3", sum.Scanned)
	}
	if len(client.fetched) != 3 || client.fetched[2] != "c" {
		t.Fatalf("fetched = %v", client.fetched)
	}
}

func TestRunFailsFastKeepingPartialRecords(t *testing.T) {
	fetchErr := fmt.Errorf("boom: %w", gmail.ErrNetwork)
	client := &fakeClient{
		listPages: []gmail.ListPage{{IDs: []gmail.MessageID{"a", "b", "c"}}},
		msgs: map[gmail.MessageID]gmail.Message{
			"a": upsMessage("a"),
			"c": upsMessage("c"),
		},
		fetchErrs: map[gmail.MessageID]error{"b": fetchErr},
	}
	recs := &fakeStore{}
	svc := newTestService(client, recs)

	_, err := svc.Run(context.Background(), Spec{Query: "label:shipments"})
	if !errors.Is(err, gmail.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	// records from message a stay appended; c was never reached
	if len(recs.batches) != 1 {
		t.Fatalf("store batches = %v", recs.batches)
	}
	if len(client.fetched) != 2 {
		t.Fatalf("fetched = %v", client.fetched)
	}
}

func TestRunSurfacesAuthError(t *testing.T) {
	client := &fakeClient{listErr: fmt.Errorf("list: %w", gmail.ErrAuth)}
	svc := newTestService(client, &fakeStore{})
	_, err := svc.Run(context.Background(), Spec{Query: "label:shipments"})
	if !errors.Is(err, gmail.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRunDryRunSkipsStore(t *testing.T) {
	client := &fakeClient{
		listPages: []gmail.ListPage{{IDs: []gmail.MessageID{"a"}}},
		msgs:      map[gmail.MessageID]gmail.Message{"a": upsMessage("a")},
	}
	recs := &fakeStore{}
	svc := newTestService(client, recs)

	sum, err := svc.Run(context.Background(), Spec{Query: "label:shipments", DryRun: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sum.Records != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(recs.batches) != 0 {
		t.Fatalf("expected no appends in dry-run, got %v", recs.batches)
	}
}

func TestRunTwiceAppendsDuplicates(t *testing.T) {
	recs := &fakeStore{}
	for i := 0; i < 2; i++ {
		client := &fakeClient{
			listPages: []gmail.ListPage{{IDs: []gmail.MessageID{"a"}}},
			msgs:      map[gmail.MessageID]gmail.Message{"a": upsMessage("a")},
		}
		svc := newTestService(client, recs)
		if _, err := svc.Run(context.Background(), Spec{Query: "label:shipments"}); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if len(recs.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(recs.batches))
	}
	if recs.batches[0][0] != recs.batches[1][0] {
		t.Fatalf("expected identical duplicate records, got %+v and %+v",
			recs.batches[0][0], recs.batches[1][0])
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
