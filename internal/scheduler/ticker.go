package scheduler

import (
	"context"
	"time"
)

// Ticker periodically triggers a job, starting with an immediate run. The
// pipeline is idempotent under re-runs (dedup prevents double insertion), so
// a scheduled pass racing an on-demand run is safe.
type Ticker struct {
	interval time.Duration
	stop     chan struct{}
}

// NewTicker builds a driver that fires every interval.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start begins ticking until Stop is called or the context ends.
func (t *Ticker) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case tick := <-ticker.C:
				job(tick)
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (t *Ticker) Stop() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}
