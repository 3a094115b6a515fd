// Package ratelimit spaces outbound model calls by a minimum interval.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between model calls.
const DefaultInterval = 2 * time.Second

// Limiter enforces a process-wide minimum interval between calls.
// Waiters are served in call order.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// New creates a limiter. A non-positive interval disables limiting.
func New(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the interval since the previous call has elapsed or
// ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return l.limiter.Wait(ctx)
	}

	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	slog.Debug("rate limit: waiting", "delay", delay)
	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Interval returns the configured minimum interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
