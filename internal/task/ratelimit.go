package task

import (
	"sync"
	"time"
)

// RateLimiter paces calls to the shared AI dependency across all workers.
// It serializes the pacing of calls, not the calls themselves: a worker
// reserves the next allowed slot under the lock, releases it, then sleeps
// until its slot arrives, so concurrent workers queue up evenly spaced
// slots without blocking each other for the full interval.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a RateLimiter enforcing the given minimum
// interval between gated calls.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Throttle blocks the calling worker until at least the configured
// interval has elapsed since the previously gated call, across all workers
// combined. It never fails.
func (l *RateLimiter) Throttle() {
	l.mu.Lock()
	now := l.now()
	slot := l.lastCall.Add(l.interval)
	if slot.Before(now) {
		slot = now
	}
	l.lastCall = slot
	l.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		l.sleep(wait)
	}
}
