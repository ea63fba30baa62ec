package errors

import (
	"testing"
)

func TestSentinelClassification(t *testing.T) {
	// Wrapping must preserve the sentinel for errors.Is checks
	err := Wrap(ErrAuthExpired, "refresh failed after 3 attempts")
	if !IsAuthError(err) {
		t.Errorf("wrapped ErrAuthExpired not detected by IsAuthError: %v", err)
	}
	if IsRateLimited(err) {
		t.Errorf("auth error misclassified as rate limited: %v", err)
	}
}

func TestDoubleWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(Wrap(ErrRateLimited, "HTTP 429"), "apply to job %s", "J123")
	if !IsRateLimited(err) {
		t.Errorf("double-wrapped ErrRateLimited not detected: %v", err)
	}
}

func TestConflictDetection(t *testing.T) {
	err := Wrap(ErrConflict, "duplicate succeeded record for (J123, apply)")
	if !IsConflict(err) {
		t.Errorf("wrapped ErrConflict not detected: %v", err)
	}
}

func TestNilErrorHelpers(t *testing.T) {
	if IsAuthError(nil) || IsRateLimited(nil) || IsConflict(nil) || IsDraftingError(nil) {
		t.Error("helpers must return false for nil errors")
	}
}
