package backoff

import (
	"testing"
	"time"

	"github.com/teranos/ladder/errors"
)

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"rate limited is transient", errors.ErrRateLimited, Transient},
		{"timeout is transient", errors.ErrTimeout, Transient},
		{"service unavailable is transient", errors.ErrServiceUnavailable, Transient},
		{"auth expiry is permanent", errors.ErrAuthExpired, Permanent},
		{"forbidden is permanent", errors.ErrForbidden, Permanent},
		{"not found is permanent", errors.ErrNotFound, Permanent},
		{"validation is permanent", errors.ErrValidation, Permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given a wrapped sentinel, as adapters produce them
			err := errors.Wrap(tt.err, "calling remote service")

			// When classified
			got := Classify(err)

			// Then the sentinel wins over any message pattern
			if got.Class != tt.want {
				t.Errorf("Classify() = %v, want %v", got.Class, tt.want)
			}
		})
	}
}

func TestClassify_MessagePatterns(t *testing.T) {
	tests := []struct {
		msg  string
		want Class
	}{
		{"HTTP 429: too many requests", Transient},
		{"read tcp: i/o timeout", Transient},
		{"connection refused", Transient},
		{"401 unauthorized", Permanent},
		{"job not found", Permanent},
		{"validation failed on field title", Permanent},
		{"something inexplicable", Transient}, // unknown defaults to transient
	}

	for _, tt := range tests {
		got := Classify(errors.New(tt.msg))
		if got.Class != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.msg, got.Class, tt.want)
		}
	}
}

func TestClassify_RetryAfter(t *testing.T) {
	// Given a rate-limit error annotated with the service's suggested wait
	err := WithRetryAfter(errors.Wrap(errors.ErrRateLimited, "HTTP 429"), 60*time.Second)

	// When classified
	cls := Classify(err)

	// Then the classification carries the wait and stays transient
	if cls.Class != Transient {
		t.Errorf("expected transient, got %v", cls.Class)
	}
	if cls.RetryAfter != 60*time.Second {
		t.Errorf("expected 60s retry-after, got %v", cls.RetryAfter)
	}
}

func TestNextDelay_Monotonic(t *testing.T) {
	// Given a policy with deterministic maximum jitter
	p := NewPolicy(500*time.Millisecond, 30*time.Second, 3).
		WithJitterSource(func() float64 { return 0.999 })

	// Then each delay is at least the previous one, up to the cap
	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.NextDelay(attempt)
		if d < prev {
			t.Errorf("delay(%d) = %v < delay(%d) = %v", attempt, d, attempt-1, prev)
		}
		if d > p.Cap {
			t.Errorf("delay(%d) = %v exceeds cap %v", attempt, d, p.Cap)
		}
		prev = d
	}

	// And the schedule reaches the cap
	if p.NextDelay(10) != p.Cap {
		t.Errorf("expected cap %v at attempt 10, got %v", p.Cap, p.NextDelay(10))
	}
}

func TestNextDelay_ZeroJitterIsExponential(t *testing.T) {
	// Given no jitter
	p := NewPolicy(500*time.Millisecond, 30*time.Second, 3).
		WithJitterSource(func() float64 { return 0 })

	// Then the schedule is exactly base * 2^(n-1)
	want := []time.Duration{500 * time.Millisecond, 1 * time.Second, 2 * time.Second}
	for i, w := range want {
		if d := p.NextDelay(i + 1); d != w {
			t.Errorf("delay(%d) = %v, want %v", i+1, d, w)
		}
	}
}

func TestDelay_RetryAfterOverride(t *testing.T) {
	p := NewPolicy(500*time.Millisecond, 30*time.Second, 3).
		WithJitterSource(func() float64 { return 0 })

	// Given a retry-after larger than the computed delay
	cls := Classification{Class: Transient, RetryAfter: 5 * time.Second}

	// Then the service's suggestion wins
	if d := p.Delay(1, cls); d != 5*time.Second {
		t.Errorf("expected 5s, got %v", d)
	}

	// But a smaller suggestion does not shorten the computed delay
	cls.RetryAfter = 100 * time.Millisecond
	if d := p.Delay(1, cls); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}
}

func TestShouldRetry(t *testing.T) {
	p := NewPolicy(0, 0, 3)

	transient := Classification{Class: Transient}
	permanent := Classification{Class: Permanent}

	// Transient failures retry until attempts are exhausted
	if !p.ShouldRetry(1, transient) || !p.ShouldRetry(2, transient) {
		t.Error("expected retries for attempts 1 and 2")
	}
	if p.ShouldRetry(3, transient) {
		t.Error("expected no retry after the final attempt")
	}

	// Permanent failures never retry, even on the first attempt
	if p.ShouldRetry(1, permanent) {
		t.Error("permanent failure must not retry")
	}
}
