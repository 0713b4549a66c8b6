package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces callers to at most perMinute operations per minute by
// enforcing a minimum spacing between grants. The first caller passes
// immediately; later callers are scheduled interval apart and sleep until
// their slot.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates a limiter for perMinute operations per minute.
// perMinute must be positive.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{interval: time.Minute / time.Duration(perMinute)}
}

// Wait blocks until the caller's slot arrives or the context is cancelled.
// A cancelled caller gives its slot up; it is not reclaimed by others.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	at := rl.next
	if now := time.Now(); at.Before(now) {
		at = now
	}
	rl.next = at.Add(rl.interval)
	rl.mu.Unlock()

	delay := time.Until(at)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
