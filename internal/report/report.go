package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joshsymonds/parceltrack/internal/store"
)

// Options controls report generation.
type Options struct {
	Window time.Duration // 0 reports on every stored record
	TopN   int
}

// RecordSource yields the records to report on.
type RecordSource interface {
	ReadAll() ([]store.TrackingRecord, error)
}

// Service summarizes what the record store has accumulated: how many
// shipments per carrier, per purchasing group, and which senders produce
// the most tracking mail.
type Service struct {
	Source RecordSource
	Clock  func() time.Time
}

// NewService constructs a Service with sane defaults.
func NewService(src RecordSource) *Service {
	return &Service{Source: src, Clock: time.Now}
}

// CarrierStat counts records per carrier.
type CarrierStat struct {
	Carrier string `json:"carrier"`
	Count   int    `json:"count"`
}

// GroupStat counts records per purchasing-group label.
type GroupStat struct {
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// SenderStat ranks senders by record volume.
type SenderStat struct {
	Sender       string `json:"sender"`
	Count        int    `json:"count"`
	LatestNumber string `json:"latest_number"`
}

// Report is the aggregated view over the record store.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Window      time.Duration `json:"window"`
	Total       int           `json:"total"`
	Carriers    []CarrierStat `json:"carriers,omitempty"`
	Groups      []GroupStat   `json:"groups,omitempty"`
	TopSenders  []SenderStat  `json:"top_senders,omitempty"`
}

// Run builds a report over records newer than the window.
func (s *Service) Run(opts Options) (Report, error) {
	records, err := s.Source.ReadAll()
	if err != nil {
		return Report{}, fmt.Errorf("load records: %w", err)
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 20
	}
	now := s.Clock()
	var cutoff time.Time
	if opts.Window > 0 {
		cutoff = now.Add(-opts.Window)
	}

	rep := Report{GeneratedAt: now, Window: opts.Window}
	carriers := map[string]int{}
	groups := map[string]int{}
	senders := map[string]*SenderStat{}
	latest := map[string]time.Time{}
	for _, r := range records {
		if !cutoff.IsZero() && r.Timestamp.Before(cutoff) {
			continue
		}
		rep.Total++
		carriers[r.Carrier]++
		if r.Destination != "" {
			groups[r.Destination]++
		}
		st := senders[r.Sender]
		if st == nil {
			st = &SenderStat{Sender: r.Sender}
			senders[r.Sender] = st
		}
		st.Count++
		if !r.Timestamp.Before(latest[r.Sender]) {
			latest[r.Sender] = r.Timestamp
			st.LatestNumber = r.TrackingNumber
		}
	}

	rep.Carriers = rankCounts(carriers, func(name string, n int) CarrierStat {
		return CarrierStat{Carrier: name, Count: n}
	})
	rep.Groups = rankCounts(groups, func(name string, n int) GroupStat {
		return GroupStat{Destination: name, Count: n}
	})
	for _, st := range senders {
		rep.TopSenders = append(rep.TopSenders, *st)
	}
	sort.Slice(rep.TopSenders, func(i, j int) bool {
		if rep.TopSenders[i].Count != rep.TopSenders[j].Count {
			return rep.TopSenders[i].Count > rep.TopSenders[j].Count
		}
		return rep.TopSenders[i].Sender < rep.TopSenders[j].Sender
	})
	if len(rep.TopSenders) > topN {
		rep.TopSenders = rep.TopSenders[:topN]
	}
	return rep, nil
}

func rankCounts[T any](counts map[string]int, mk func(string, int) T) []T {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	out := make([]T, 0, len(names))
	for _, name := range names {
		out = append(out, mk(name, counts[name]))
	}
	return out
}

// HumanSummary renders a concise CLI summary.
func (r Report) HumanSummary() string {
	b := &strings.Builder{}
	if r.Window > 0 {
		fmt.Fprintf(b, "parceltrack report — window %s (%d records)\n", r.Window, r.Total)
	} else {
		fmt.Fprintf(b, "parceltrack report — all time (%d records)\n", r.Total)
	}
	if r.Total == 0 {
		b.WriteString("no records\n")
		return b.String()
	}
	if len(r.Carriers) > 0 {
		b.WriteString("carriers:\n")
		for _, c := range r.Carriers {
			fmt.Fprintf(b, "  %s: %d\n", c.Carrier, c.Count)
		}
	}
	if len(r.Groups) > 0 {
		b.WriteString("groups:\n")
		for _, g := range r.Groups {
			fmt.Fprintf(b, "  %s: %d\n", g.Destination, g.Count)
		}
	}
	if len(r.TopSenders) > 0 {
		b.WriteString("top senders:\n")
		for _, s := range r.TopSenders {
			fmt.Fprintf(b, "  %s: %d (latest %s)\n", s.Sender, s.Count, s.LatestNumber)
		}
	}
	return b.String()
}
