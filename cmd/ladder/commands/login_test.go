package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/teranos/ladder/engine"
)

func TestDescribeTokenStatus(t *testing.T) {
	now := time.Now()

	valid := &engine.Session{Token: "tok", Expiry: now.Add(time.Hour)}
	if got := describeTokenStatus(valid, now); !strings.HasPrefix(got, "Session valid until") {
		t.Errorf("valid session: got %q", got)
	}

	expired := &engine.Session{Token: "tok", Expiry: now.Add(-time.Hour)}
	if got := describeTokenStatus(expired, now); !strings.Contains(got, "expired") {
		t.Errorf("expired session: got %q", got)
	}

	empty := &engine.Session{Expiry: now.Add(time.Hour)}
	if got := describeTokenStatus(empty, now); !strings.Contains(got, "expired") {
		t.Errorf("session without token: got %q", got)
	}
}
