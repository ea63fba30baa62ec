// Package executor performs one logical unit of work against a target:
// session acquisition, ledger pre-check, the port call wrapped in the
// backoff policy, and exactly one ledger write per terminal outcome.
package executor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/backoff"
	"github.com/teranos/ladder/engine/ledger"
	"github.com/teranos/ladder/engine/ratelimit"
	"github.com/teranos/ladder/engine/session"
	"github.com/teranos/ladder/errors"
)

// Sleeper waits for the given duration or until the context is done.
// Injectable so retry waits are testable without real time.
type Sleeper func(ctx context.Context, d time.Duration) error

// defaultSleeper is a cancellable timer wait, never a busy loop.
func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Executor runs actions to a terminal outcome.
type Executor struct {
	sessions *session.Manager
	store    *ledger.Store
	actions  engine.ActionPort
	policy   *backoff.Policy
	limiter  *ratelimit.Limiter

	sleep   Sleeper
	timeNow func() time.Time
	logger  *zap.SugaredLogger
}

// New creates an executor. limiter may be nil to disable local pacing.
func New(sessions *session.Manager, store *ledger.Store, actions engine.ActionPort,
	policy *backoff.Policy, limiter *ratelimit.Limiter, log *zap.SugaredLogger) *Executor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Executor{
		sessions: sessions,
		store:    store,
		actions:  actions,
		policy:   policy,
		limiter:  limiter,
		sleep:    defaultSleeper,
		timeNow:  time.Now,
		logger:   log,
	}
}

// WithSleeper replaces the inter-attempt wait. Tests pass a recording
// sleeper to assert the delay schedule without real time.
func (e *Executor) WithSleeper(s Sleeper) *Executor {
	e.sleep = s
	return e
}

// Execute runs one action against one target until it reaches a
// terminal outcome. payload is the message text for message actions
// or the cover letter for applications (may be empty).
//
// The returned error is nil for ordinary terminal outcomes; it is
// non-nil only for run-fatal conditions the pipeline must abort on:
// auth expiry after failed refresh, a failed ledger write, or
// cancellation.
func (e *Executor) Execute(ctx context.Context, target engine.Target, kind engine.Kind, payload, runID string) (engine.Result, error) {
	result := engine.Result{
		TargetID:  target.TargetID(),
		Kind:      kind,
		Timestamp: e.timeNow(),
	}

	log := e.logger.With("target_id", result.TargetID, "kind", kind)

	// Dedup pre-check: never repeat a succeeded action
	done, err := e.store.HasSucceeded(result.TargetID, kind)
	if err != nil {
		result.Status = engine.StatusNotAttempted
		result.Reason = "ledger check failed"
		return result, errors.Wrap(err, "ledger pre-check failed")
	}
	if done {
		log.Debugw("Target already handled, skipping")
		result.Status = engine.StatusAlreadyDone
		return result, nil
	}

	sess, err := e.sessions.Acquire(ctx)
	if err != nil {
		result.Status = engine.StatusNotAttempted
		result.Reason = "no valid session"
		return result, err
	}

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt

		if err := e.limiter.Wait(ctx); err != nil {
			result.Status = engine.StatusNotAttempted
			result.Reason = "cancelled"
			return result, err
		}

		attemptErr := e.attempt(ctx, sess, target, kind, payload)
		if attemptErr == nil {
			result.Status = engine.StatusSucceeded
			return result, e.recordTerminal(result, runID, log)
		}

		// An unauthorized port call invalidates the session; the
		// session manager gets one shot at a refresh before the run
		// is declared dead.
		if errors.IsAuthError(attemptErr) {
			log.Warnw("Port call unauthorized, refreshing session", "attempt", attempt)
			sess, err = e.sessions.ForceRefresh(ctx)
			if err != nil {
				result.Status = engine.StatusFailedPermanent
				result.Reason = "authentication expired"
				if recErr := e.recordTerminal(result, runID, log); recErr != nil {
					return result, recErr
				}
				return result, err
			}
			if attempt < e.policy.MaxAttempts {
				continue
			}
			result.Status = engine.StatusFailedTransient
			result.Reason = "attempts exhausted after re-auth"
			return result, e.recordTerminal(result, runID, log)
		}

		cls := backoff.Classify(attemptErr)
		if !e.policy.ShouldRetry(attempt, cls) {
			if cls.Class == backoff.Permanent {
				result.Status = engine.StatusFailedPermanent
			} else {
				// Retryable but abandoned: attempts exhausted
				result.Status = engine.StatusFailedTransient
			}
			result.Reason = cls.Reason
			return result, e.recordTerminal(result, runID, log)
		}

		delay := e.policy.Delay(attempt, cls)
		log.Infow("Transient failure, backing off",
			"attempt", attempt,
			"delay", delay,
			"reason", cls.Reason,
		)
		if err := e.sleep(ctx, delay); err != nil {
			// Abandoned mid-wait: no ledger write for an unfinished action
			result.Status = engine.StatusNotAttempted
			result.Reason = "cancelled"
			return result, err
		}
	}
}

// attempt makes exactly one port call for the (target, kind) pair.
func (e *Executor) attempt(ctx context.Context, sess *engine.Session, target engine.Target, kind engine.Kind, payload string) error {
	switch kind {
	case engine.KindApply:
		job, ok := target.(engine.JobPosting)
		if !ok {
			return errors.Wrapf(errors.ErrValidation, "apply needs a job posting, got %T", target)
		}
		return e.actions.Apply(ctx, sess, job, payload)
	case engine.KindMessage:
		contact, ok := target.(engine.RecruiterContact)
		if !ok {
			return errors.Wrapf(errors.ErrValidation, "message needs a recruiter contact, got %T", target)
		}
		return e.actions.SendMessage(ctx, sess, contact, payload)
	default:
		return errors.Wrapf(errors.ErrValidation, "unknown action kind %q", kind)
	}
}

// recordTerminal writes the single ledger entry for a terminal
// outcome. A conflict means another writer got there first; the
// action is already durable, so it is folded into already-done.
func (e *Executor) recordTerminal(result engine.Result, runID string, log *zap.SugaredLogger) error {
	err := e.store.Record(ledger.Action{
		TargetID: result.TargetID,
		Kind:     result.Kind,
		Outcome:  result.Status,
		Reason:   result.Reason,
		Attempts: result.Attempts,
		RunID:    runID,
	})
	if err == nil {
		return nil
	}
	if errors.IsConflict(err) {
		log.Debugw("Concurrent writer already recorded success")
		return nil
	}
	// The action may have happened but is not durable; the run must
	// not continue mutating.
	log.Errorw("Ledger write failed", "error", err)
	return errors.Wrap(err, "failed to record outcome")
}
