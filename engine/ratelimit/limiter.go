// Package ratelimit bounds how many outbound service calls the engine
// makes per time window, independent of the remote service's own
// limiting. A sliding window keeps bursts after idle periods within
// the configured budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/ladder/errors"
)

// Limiter enforces max calls per time window using a sliding window.
// A nil *Limiter or a zero maxCalls disables limiting.
type Limiter struct {
	maxCalls  int
	window    time.Duration
	mu        sync.Mutex
	callTimes []time.Time
	timeNow   func() time.Time // Injectable for testing
}

// NewLimiter creates a rate limiter with real time
func NewLimiter(maxCalls int, window time.Duration) *Limiter {
	return NewLimiterWithClock(maxCalls, window, time.Now)
}

// NewLimiterWithClock creates a rate limiter with injectable clock (for testing)
func NewLimiterWithClock(maxCalls int, window time.Duration, timeNow func() time.Time) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		maxCalls:  maxCalls,
		window:    window,
		callTimes: make([]time.Time, 0, maxCalls),
		timeNow:   timeNow,
	}
}

// Allow checks if a call is allowed under the limit and records it.
// Returns an ErrRateLimited-wrapped error when the window is full.
func (r *Limiter) Allow() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxCalls <= 0 {
		return nil
	}

	now := r.timeNow()
	r.removeExpiredCalls(now)

	if len(r.callTimes) >= r.maxCalls {
		return errors.Wrapf(errors.ErrRateLimited,
			"local limit reached: %d calls in %v", len(r.callTimes), r.window)
	}

	r.callTimes = append(r.callTimes, now)
	return nil
}

// Wait blocks until a call is allowed under the limit.
// Returns the context's error if it is cancelled first.
func (r *Limiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}

	for {
		if err := r.Allow(); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Retry after short delay
		}
	}
}

// removeExpiredCalls removes call timestamps outside the sliding window.
// Must be called with lock held.
func (r *Limiter) removeExpiredCalls(now time.Time) {
	cutoff := now.Add(-r.window)

	// Timestamps are ordered, so count expired calls from the front
	expired := 0
	for _, callTime := range r.callTimes {
		if !callTime.After(cutoff) {
			expired++
		} else {
			break
		}
	}

	r.callTimes = r.callTimes[expired:]
}

// SetBudget replaces the call budget and window. Calls already in
// flight keep their recorded timestamps; the next Allow applies the
// new budget. Used by config hot-reload during long runs.
func (r *Limiter) SetBudget(maxCalls int, window time.Duration) {
	if r == nil {
		return
	}
	if window <= 0 {
		window = time.Minute
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.maxCalls = maxCalls
	r.window = window
}

// Reset clears the rate limiter state
func (r *Limiter) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callTimes = r.callTimes[:0]
}

// Stats returns current calls in the window and remaining capacity
func (r *Limiter) Stats() (callsInWindow int, remaining int) {
	if r == nil || r.maxCalls <= 0 {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow()
	r.removeExpiredCalls(now)

	callsInWindow = len(r.callTimes)
	remaining = r.maxCalls - callsInWindow
	if remaining < 0 {
		remaining = 0
	}

	return callsInWindow, remaining
}
