package resilience

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// LinearBackoff returns attempt*step, capped at max when max > 0.
func LinearBackoff(attempt int, step, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * step
	if max > 0 && d > max {
		return max
	}
	return d
}

// Sleep waits for d on the given clock or returns ctx.Err() when ctx ends first.
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
