// Package ratelimit smooths request bursts against the upstream's
// short-window limits, independently of the daily quota budget.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates calls behind two token buckets, per-second and per-minute,
// each refilling independently. A call needs a token from both.
type Limiter struct {
	perSecond *rate.Limiter
	perMinute *rate.Limiter
	maxWait   time.Duration
}

// NewLimiter sizes the buckets from per-second and per-minute rates.
// maxWait bounds how long a blocking acquire may suspend the caller.
func NewLimiter(perSecond, perMinute float64, maxWait time.Duration) *Limiter {
	secBurst := int(perSecond)
	if secBurst < 1 {
		secBurst = 1
	}
	minBurst := int(perMinute)
	if minBurst < 1 {
		minBurst = 1
	}
	return &Limiter{
		perSecond: rate.NewLimiter(rate.Limit(perSecond), secBurst),
		perMinute: rate.NewLimiter(rate.Limit(perMinute/60.0), minBurst),
		maxWait:   maxWait,
	}
}

// TryAcquire takes a token from both buckets without waiting. When only
// one bucket has capacity its reservation is cancelled so tokens are not
// leaked.
func (l *Limiter) TryAcquire() bool {
	rs := l.perSecond.Reserve()
	if !rs.OK() || rs.Delay() > 0 {
		rs.Cancel()
		return false
	}
	rm := l.perMinute.Reserve()
	if !rm.OK() || rm.Delay() > 0 {
		rm.Cancel()
		rs.Cancel()
		return false
	}
	return true
}

// Acquire blocks until both buckets grant a token, the bounded wait
// elapses, or ctx is cancelled. Returns false on timeout or cancellation.
func (l *Limiter) Acquire(ctx context.Context) bool {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	if err := l.perSecond.Wait(waitCtx); err != nil {
		return false
	}
	if err := l.perMinute.Wait(waitCtx); err != nil {
		// The per-second token is already spent; the minute bucket is the
		// tighter constraint, so treat the whole acquire as denied.
		return false
	}
	return true
}
