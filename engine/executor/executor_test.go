package executor

import (
	"context"
	"testing"
	"time"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/backoff"
	"github.com/teranos/ladder/engine/ledger"
	"github.com/teranos/ladder/engine/session"
	"github.com/teranos/ladder/errors"
	qt "github.com/teranos/ladder/internal/testing"
)

// fakeAuth serves sessions and optionally fails refreshes
type fakeAuth struct {
	refreshErr error
	logins     int
	refreshes  int
}

func (f *fakeAuth) Login(ctx context.Context) (*engine.Session, error) {
	f.logins++
	return &engine.Session{Token: "tok", Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) Refresh(ctx context.Context, s *engine.Session) (*engine.Session, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &engine.Session{Token: "tok2", Expiry: time.Now().Add(time.Hour)}, nil
}

// fakeActions returns scripted errors, one per attempt, then succeeds
type fakeActions struct {
	errs  []error
	calls int
}

func (f *fakeActions) next() error {
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func (f *fakeActions) Apply(ctx context.Context, s *engine.Session, job engine.JobPosting, cover string) error {
	return f.next()
}

func (f *fakeActions) SendMessage(ctx context.Context, s *engine.Session, c engine.RecruiterContact, text string) error {
	return f.next()
}

// recordingSleeper captures requested delays instead of waiting
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.delays = append(r.delays, d)
	return nil
}

func newTestExecutor(t *testing.T, auth *fakeAuth, actions *fakeActions) (*Executor, *ledger.Store, *recordingSleeper) {
	t.Helper()
	db := qt.CreateMigratedTestDB(t)
	store := ledger.NewStore(db)
	sessions := session.NewManager(auth, time.Minute, 2, nil)
	policy := backoff.NewPolicy(500*time.Millisecond, 30*time.Second, 3).
		WithJitterSource(func() float64 { return 0 })
	sleeper := &recordingSleeper{}
	exec := New(sessions, store, actions, policy, nil, nil).WithSleeper(sleeper.sleep)
	return exec, store, sleeper
}

func job(id string) engine.JobPosting {
	return engine.JobPosting{ID: id, Title: "Backend Engineer", Company: "Acme"}
}

func TestExecute_RateLimitedThenSucceeds(t *testing.T) {
	// Given a port that rate-limits twice then accepts
	actions := &fakeActions{errs: []error{
		errors.Wrap(errors.ErrRateLimited, "HTTP 429"),
		errors.Wrap(errors.ErrRateLimited, "HTTP 429"),
	}}
	exec, store, sleeper := newTestExecutor(t, &fakeAuth{}, actions)

	// When executing
	result, err := exec.Execute(context.Background(), job("job-1"), engine.KindApply, "", "run-1")

	// Then the third attempt succeeds
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != engine.StatusSucceeded {
		t.Errorf("status = %s, want succeeded", result.Status)
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}

	// And the total wait is delay(1) + delay(2)
	want := []time.Duration{500 * time.Millisecond, 1 * time.Second}
	if len(sleeper.delays) != 2 || sleeper.delays[0] != want[0] || sleeper.delays[1] != want[1] {
		t.Errorf("delays = %v, want %v", sleeper.delays, want)
	}

	// And exactly one ledger entry exists
	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != engine.StatusSucceeded {
		t.Errorf("expected one succeeded entry, got %+v", entries)
	}
}

func TestExecute_PermanentFailureSingleAttempt(t *testing.T) {
	// Given a port that reports a permanent failure
	actions := &fakeActions{errs: []error{
		errors.Wrap(errors.ErrNotFound, "job vanished"),
		errors.New("should never be reached"),
	}}
	exec, store, sleeper := newTestExecutor(t, &fakeAuth{}, actions)

	result, err := exec.Execute(context.Background(), job("job-2"), engine.KindApply, "", "run-1")

	// Then exactly one port call was made, with no backoff wait
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != engine.StatusFailedPermanent {
		t.Errorf("status = %s, want failed-permanent", result.Status)
	}
	if actions.calls != 1 {
		t.Errorf("port calls = %d, want 1", actions.calls)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("expected no waits, got %v", sleeper.delays)
	}

	entries, _ := store.List(0)
	if len(entries) != 1 || entries[0].Outcome != engine.StatusFailedPermanent {
		t.Errorf("expected one failed-permanent entry, got %+v", entries)
	}
}

func TestExecute_TransientExhaustion(t *testing.T) {
	// Given a port that times out on every attempt
	actions := &fakeActions{errs: []error{
		errors.ErrTimeout, errors.ErrTimeout, errors.ErrTimeout, errors.ErrTimeout,
	}}
	exec, store, _ := newTestExecutor(t, &fakeAuth{}, actions)

	result, err := exec.Execute(context.Background(), job("job-3"), engine.KindApply, "", "run-1")

	// Then the outcome is exhausted-transient, distinct from permanent
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != engine.StatusFailedTransient {
		t.Errorf("status = %s, want failed-transient", result.Status)
	}
	if actions.calls != 3 {
		t.Errorf("port calls = %d, want max attempts 3", actions.calls)
	}

	entries, _ := store.List(0)
	if len(entries) != 1 || entries[0].Outcome != engine.StatusFailedTransient {
		t.Errorf("expected one failed-transient entry, got %+v", entries)
	}
}

func TestExecute_AlreadyDoneShortCircuit(t *testing.T) {
	// Given a ledger that already has a succeeded entry
	actions := &fakeActions{}
	exec, store, _ := newTestExecutor(t, &fakeAuth{}, actions)

	if err := store.Record(ledger.Action{
		TargetID: "job-4", Kind: engine.KindApply,
		Outcome: engine.StatusSucceeded, Attempts: 1,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	result, err := exec.Execute(context.Background(), job("job-4"), engine.KindApply, "", "run-1")

	// Then no port call happens and no new entry is written
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != engine.StatusAlreadyDone {
		t.Errorf("status = %s, want already-done", result.Status)
	}
	if actions.calls != 0 {
		t.Errorf("port calls = %d, want 0", actions.calls)
	}

	entries, _ := store.List(0)
	if len(entries) != 1 {
		t.Errorf("expected the ledger untouched, got %d entries", len(entries))
	}
}

func TestExecute_UnauthorizedRefreshFails(t *testing.T) {
	// Given a port that rejects the session and an auth port whose
	// refresh also fails
	auth := &fakeAuth{}
	actions := &fakeActions{errs: []error{
		errors.Wrap(errors.ErrAuthExpired, "401 unauthorized"),
	}}
	exec, store, _ := newTestExecutor(t, auth, actions)

	// Prime the session, then make refresh fail
	if _, err := exec.sessions.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	auth.refreshErr = errors.New("refresh rejected")

	result, err := exec.Execute(context.Background(), job("job-5"), engine.KindApply, "", "run-1")

	// Then the run-fatal auth error surfaces for the pipeline to abort on
	if err == nil {
		t.Fatal("expected run-fatal auth error")
	}
	if !errors.IsAuthError(err) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}
	if result.Status != engine.StatusFailedPermanent {
		t.Errorf("status = %s, want failed-permanent", result.Status)
	}
	if actions.calls != 1 {
		t.Errorf("port calls = %d, want 1", actions.calls)
	}

	// And the terminal outcome is still durably recorded
	entries, _ := store.List(0)
	if len(entries) != 1 || entries[0].Outcome != engine.StatusFailedPermanent {
		t.Errorf("expected one failed-permanent entry, got %+v", entries)
	}
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	// Given a transient failure and a context cancelled before the wait
	actions := &fakeActions{errs: []error{errors.ErrTimeout, errors.ErrTimeout}}
	exec, store, _ := newTestExecutor(t, &fakeAuth{}, actions)

	ctx, cancel := context.WithCancel(context.Background())
	exec.WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	result, err := exec.Execute(ctx, job("job-6"), engine.KindApply, "", "run-1")

	// Then the action is abandoned with no ledger write
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.Status != engine.StatusNotAttempted {
		t.Errorf("status = %s, want not-attempted", result.Status)
	}

	entries, _ := store.List(0)
	if len(entries) != 0 {
		t.Errorf("expected no ledger entries for an abandoned action, got %d", len(entries))
	}
}

func TestExecute_KindTargetMismatch(t *testing.T) {
	// Applying to a recruiter contact is a permanent validation failure
	actions := &fakeActions{}
	exec, _, _ := newTestExecutor(t, &fakeAuth{}, actions)

	contact := engine.RecruiterContact{ID: "rec-1", Name: "Sam", Title: "Technical Recruiter"}
	result, err := exec.Execute(context.Background(), contact, engine.KindApply, "", "run-1")

	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != engine.StatusFailedPermanent {
		t.Errorf("status = %s, want failed-permanent", result.Status)
	}
	if actions.calls != 0 {
		t.Errorf("port calls = %d, want 0", actions.calls)
	}
}
