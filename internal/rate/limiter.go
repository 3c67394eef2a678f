package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter paces outbound provider calls so a scan stays inside the mail
// provider's per-user quota.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Nop performs no pacing.
type Nop struct{}

func (Nop) Wait(context.Context) error { return nil }

// Interval releases one call per fixed interval. The first call proceeds
// immediately so short scans don't pay a startup delay.
type Interval struct {
	ticker *time.Ticker
	first  chan struct{}
}

// PerSecond returns a limiter allowing rps calls per second.
func PerSecond(rps int) *Interval {
	if rps <= 0 {
		rps = 1
	}
	first := make(chan struct{}, 1)
	first <- struct{}{}
	return &Interval{
		ticker: time.NewTicker(time.Second / time.Duration(rps)),
		first:  first,
	}
}

// Wait blocks until the next slot opens or the context is canceled.
func (l *Interval) Wait(ctx context.Context) error {
	select {
	case <-l.first:
		return nil
	default:
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-l.ticker.C:
		return nil
	}
}

// Stop releases the limiter's timer.
func (l *Interval) Stop() { l.ticker.Stop() }

var _ Limiter = (*Interval)(nil)
var _ Limiter = Nop{}
