package engine

import (
	"context"
	"time"
)

// Session is an authenticated session against the remote service.
// Owned exclusively by the session manager; callers treat it as read-only.
type Session struct {
	Token         string
	IssuedAt      time.Time
	Expiry        time.Time
	RefreshHandle string
}

// ValidAt reports whether the session is usable at the given instant,
// treating sessions within the safety margin of expiry as expired.
func (s *Session) ValidAt(now time.Time, safetyMargin time.Duration) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return now.Before(s.Expiry.Add(-safetyMargin))
}

// AuthPort obtains and refreshes sessions against the remote service.
type AuthPort interface {
	Login(ctx context.Context) (*Session, error)
	Refresh(ctx context.Context, session *Session) (*Session, error)
}

// DiscoveryPort finds candidate targets. Sequences are finite and
// restartable; discovery performs no mutations.
type DiscoveryPort interface {
	FindJobs(ctx context.Context, session *Session, criteria Criteria) ([]JobPosting, error)
	FindContacts(ctx context.Context, session *Session, criteria Criteria) ([]RecruiterContact, error)
	JobDescription(ctx context.Context, session *Session, jobID string) (string, error)
}

// ActionPort performs the mutating operations. Exactly one port call
// is made per executor attempt.
type ActionPort interface {
	Apply(ctx context.Context, session *Session, job JobPosting, coverLetter string) error
	SendMessage(ctx context.Context, session *Session, contact RecruiterContact, text string) error
}

// DraftingPort generates message text from a template and per-target
// context. Drafting failures are non-fatal to a run.
type DraftingPort interface {
	Draft(ctx context.Context, template string, context map[string]string) (string, error)
	Ping(ctx context.Context) error
}
