package http

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum wall-clock interval between the start
// of consecutive calls. The limiter state is shared per instance and
// serialized by a mutex, so concurrent callers observe a single global
// schedule.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter with the given minimum interval.
// A non-positive interval disables waiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// SetClock overrides the wall clock and sleep functions (for testing).
func (r *RateLimiter) SetClock(now func() time.Time, sleep func(time.Duration)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	r.sleep = sleep
}

// Wait blocks until the minimum interval since the previous call start
// has elapsed, then records the new call start.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval > 0 && !r.last.IsZero() {
		elapsed := r.now().Sub(r.last)
		if elapsed < r.interval {
			r.sleep(r.interval - elapsed)
		}
	}

	r.last = r.now()
}
