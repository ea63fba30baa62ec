// Package backoff implements the retry decision policy: classifying
// failures as transient or permanent and computing the wait before the
// next attempt. The policy is pure; it never sleeps. Callers own the
// actual wait so it stays cancellable and testable without real time.
package backoff

import (
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/teranos/ladder/errors"
)

// Class is the retry classification of a failure.
type Class int

const (
	// Transient failures are retried per the delay schedule.
	Transient Class = iota
	// Permanent failures are never retried; waiting cannot fix them.
	Permanent
)

func (c Class) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "transient"
}

// Classification is the policy's verdict on one failed attempt.
type Classification struct {
	Class      Class
	RetryAfter time.Duration // service-suggested wait (429 Retry-After), 0 if none
	Reason     string
}

// retryAfterError carries a service-suggested wait alongside an error.
type retryAfterError struct {
	err   error
	after time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

// WithRetryAfter annotates an error with the wait the remote service
// asked for. Adapters call this when a 429 response carries Retry-After.
func WithRetryAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &retryAfterError{err: err, after: after}
}

// Classify categorizes a failed attempt. Domain sentinels take
// precedence; unrecognized errors default to transient so that one
// odd failure does not permanently burn a target.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Class: Transient, Reason: "unknown"}
	}

	cls := Classification{Reason: err.Error()}

	var ra *retryAfterError
	if errors.As(err, &ra) {
		cls.RetryAfter = ra.after
	}

	switch {
	case errors.IsAny(err, errors.ErrAuthExpired, errors.ErrForbidden,
		errors.ErrNotFound, errors.ErrValidation):
		cls.Class = Permanent
		return cls
	case errors.IsAny(err, errors.ErrRateLimited, errors.ErrTimeout,
		errors.ErrServiceUnavailable):
		cls.Class = Transient
		return cls
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		cls.Class = Transient
		return cls
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				cls.Class = Transient
				return cls
			}
		}
	}

	// Classify based on error message patterns
	errLower := strings.ToLower(err.Error())
	switch {
	case containsAny(errLower, "unauthorized", "forbidden", "not found",
		"validation", "invalid request", "bad request"):
		cls.Class = Permanent

	case containsAny(errLower, "rate limit", "too many requests",
		"timeout", "timed out", "deadline exceeded",
		"connection reset by peer", "connection refused",
		"temporary failure", "network is unreachable",
		"service unavailable", "i/o timeout"):
		cls.Class = Transient

	default:
		cls.Class = Transient
	}

	return cls
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Policy computes delays for transient retries. Zero-value fields fall
// back to the documented defaults in NewPolicy.
type Policy struct {
	Base        time.Duration // first delay (default 500ms)
	Cap         time.Duration // delay ceiling (default 30s)
	MaxAttempts int           // attempts per action (default 3)

	// jitterFrac returns a value in [0, 1); replaceable in tests
	jitterFrac func() float64
}

// NewPolicy creates a backoff policy. Non-positive arguments select
// the defaults.
func NewPolicy(base, cap time.Duration, maxAttempts int) *Policy {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if cap <= 0 {
		cap = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Policy{
		Base:        base,
		Cap:         cap,
		MaxAttempts: maxAttempts,
		jitterFrac:  rand.Float64,
	}
}

// WithJitterSource replaces the jitter source. Tests pass a
// deterministic function.
func (p *Policy) WithJitterSource(f func() float64) *Policy {
	p.jitterFrac = f
	return p
}

// NextDelay returns the wait after the given failed attempt (1-based):
// base * 2^(attempt-1) plus jitter in [0, delay/2), capped. Jitter
// stays below half the step so the schedule is non-decreasing.
func (p *Policy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Cap {
			return p.Cap
		}
	}

	jittered := delay + time.Duration(p.jitterFrac()*float64(delay)/2)
	if jittered > p.Cap {
		return p.Cap
	}
	return jittered
}

// Delay returns the wait before retrying, honoring a service-suggested
// Retry-After when it exceeds the computed delay.
func (p *Policy) Delay(attempt int, cls Classification) time.Duration {
	d := p.NextDelay(attempt)
	if cls.RetryAfter > d {
		return cls.RetryAfter
	}
	return d
}

// ShouldRetry reports whether another attempt is permitted after the
// given failed attempt (1-based). Permanent failures never retry.
func (p *Policy) ShouldRetry(attempt int, cls Classification) bool {
	if cls.Class == Permanent {
		return false
	}
	return attempt < p.MaxAttempts
}
