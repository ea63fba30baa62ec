// Package session owns the authenticated session lifecycle: lazy login,
// expiry-aware refresh, and atomic replacement visible to concurrent
// workers.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/errors"
)

// Manager holds at most one live session and refreshes it on demand.
// All access goes through Acquire so callers never observe a torn
// session: they see the old one or the new one, nothing in between.
type Manager struct {
	auth           engine.AuthPort
	safetyMargin   time.Duration
	refreshRetries int

	mu      sync.Mutex
	current *engine.Session

	timeNow func() time.Time // Injectable for testing
	logger  *zap.SugaredLogger
}

// NewManager creates a session manager. Non-positive safetyMargin
// defaults to 5 minutes; non-positive refreshRetries defaults to 2.
func NewManager(auth engine.AuthPort, safetyMargin time.Duration, refreshRetries int, log *zap.SugaredLogger) *Manager {
	if safetyMargin <= 0 {
		safetyMargin = 5 * time.Minute
	}
	if refreshRetries <= 0 {
		refreshRetries = 2
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		auth:           auth,
		safetyMargin:   safetyMargin,
		refreshRetries: refreshRetries,
		timeNow:        time.Now,
		logger:         log,
	}
}

// WithClock replaces the manager's clock. Tests use this to control
// expiry without real waits.
func (m *Manager) WithClock(timeNow func() time.Time) *Manager {
	m.timeNow = timeNow
	return m
}

// Acquire returns a session valid for at least the safety margin,
// logging in or refreshing as needed. A refresh that keeps failing
// after its bounded retries surfaces ErrAuthExpired; waiting longer
// cannot produce a fresh token.
func (m *Manager) Acquire(ctx context.Context) (*engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.timeNow()
	if m.current.ValidAt(now, m.safetyMargin) {
		return m.current, nil
	}

	if m.current == nil {
		return m.loginLocked(ctx)
	}
	return m.refreshLocked(ctx)
}

// loginLocked performs the initial login. Must be called with lock held.
func (m *Manager) loginLocked(ctx context.Context) (*engine.Session, error) {
	m.logger.Debugw("No session, logging in")

	session, err := m.auth.Login(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(errors.ErrAuthExpired, err), "login failed")
	}

	m.current = session
	m.logger.Infow("Session established",
		"expiry", session.Expiry,
	)
	return session, nil
}

// refreshLocked replaces the expired session. Must be called with lock held.
func (m *Manager) refreshLocked(ctx context.Context) (*engine.Session, error) {
	var lastErr error
	for attempt := 1; attempt <= m.refreshRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := m.auth.Refresh(ctx, m.current)
		if err == nil {
			m.current = session
			m.logger.Infow("Session refreshed",
				"attempt", attempt,
				"expiry", session.Expiry,
			)
			return session, nil
		}

		lastErr = err
		m.logger.Warnw("Session refresh failed",
			"attempt", attempt,
			"max_attempts", m.refreshRetries,
			"error", err,
		)
	}

	m.current = nil
	return nil, errors.Wrapf(errors.WithSecondaryError(errors.ErrAuthExpired, lastErr),
		"refresh failed after %d attempts", m.refreshRetries)
}

// ForceRefresh discards trust in the current session and obtains a new
// one: refreshing when a session exists, logging in otherwise. Used
// when the remote service rejects a session the manager still thought
// was valid.
func (m *Manager) ForceRefresh(ctx context.Context) (*engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return m.loginLocked(ctx)
	}
	return m.refreshLocked(ctx)
}

// Invalidate discards the current session. The next Acquire logs in
// from scratch.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.logger.Debugw("Session invalidated")
}
