package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/autonomy"
	"github.com/teranos/ladder/engine/executor"
	"github.com/teranos/ladder/engine/ledger"
	"github.com/teranos/ladder/engine/session"
	"github.com/teranos/ladder/errors"
)

// Deps bundles the collaborators shared by both pipelines.
type Deps struct {
	Sessions  *session.Manager
	Discovery engine.DiscoveryPort
	Drafting  engine.DraftingPort // nil disables drafting
	Executor  *executor.Executor
	Ledger    *ledger.Store
	Logger    *zap.SugaredLogger
}

// Options tunes pipeline behavior.
type Options struct {
	Workers         int    // bounded worker pool size (default 1)
	CoverTemplate   string // empty = apply without cover letter
	MessageTemplate string // outreach template with {key} placeholders
}

// JobPipeline orchestrates discovery, filtering, deduplication, and
// application for a batch of search criteria.
type JobPipeline struct {
	deps    Deps
	opts    Options
	timeNow func() time.Time
	logger  *zap.SugaredLogger
}

// NewJobPipeline creates a job pipeline.
func NewJobPipeline(deps Deps, opts Options) *JobPipeline {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &JobPipeline{
		deps:    deps,
		opts:    opts,
		timeNow: time.Now,
		logger:  log,
	}
}

// Run executes one job-application run. A discovery or persistence
// failure aborts the run with a top-level error; the partial report is
// always returned, with untouched targets marked not-attempted.
func (p *JobPipeline) Run(ctx context.Context, rc RunContext) (*Report, error) {
	report := &Report{
		RunID:     rc.RunID,
		Mode:      rc.Mode.String(),
		StartedAt: p.timeNow(),
	}
	defer func() { report.CompletedAt = p.timeNow() }()

	if !rc.Mode.IsValid() {
		return report, errors.Wrapf(errors.ErrValidation, "invalid autonomy mode %q", rc.Mode)
	}

	log := p.logger.With("run_id", rc.RunID, "mode", rc.Mode)

	sess, err := p.deps.Sessions.Acquire(ctx)
	if err != nil {
		return report, err
	}

	jobs, err := p.deps.Discovery.FindJobs(ctx, sess, rc.Criteria)
	if err != nil {
		return report, errors.Wrap(err, "job discovery failed")
	}
	if rc.Criteria.MaxTargets > 0 && len(jobs) > rc.Criteria.MaxTargets {
		jobs = jobs[:rc.Criteria.MaxTargets]
	}

	log.Infow("Jobs discovered", "count", len(jobs))

	rows := make([]Row, len(jobs))
	var items []workItem

	for i, job := range jobs {
		row := &rows[i]
		row.TargetID = job.ID
		row.Name = job.Title
		row.Company = job.Company
		row.Timestamp = p.timeNow()

		if reason, ok := p.filterJob(ctx, sess, rc, job, row); !ok {
			row.Status = engine.StatusFiltered
			row.Reason = reason
			continue
		}

		done, err := p.deps.Ledger.HasSucceeded(job.ID, engine.KindApply)
		if err != nil {
			row.Status = engine.StatusNotAttempted
			row.Reason = "ledger check failed"
			finalizeUnprocessed(rows, p.timeNow())
			report.Entries = rows
			return report, errors.Wrap(err, "ledger check failed")
		}
		if done {
			row.Status = engine.StatusAlreadyDone
			continue
		}

		switch rc.Mode.Gate(job.ID, rc.Confirmed) {
		case autonomy.Observe:
			row.Status = engine.StatusObserved
		case autonomy.Stage:
			row.Status = engine.StatusPendingConfirmation
		case autonomy.Execute:
			cover, ok := p.draftCover(ctx, rc, job, row)
			if !ok {
				continue
			}
			items = append(items, workItem{idx: i, target: job, kind: engine.KindApply, payload: cover})
		}
	}

	fatal := executeBatch(ctx, p.deps.Executor, rc.RunID, p.opts.Workers, items, rows, p.timeNow)
	finalizeUnprocessed(rows, p.timeNow())
	report.Entries = rows

	counts := report.Counts()
	log.Infow("Job run complete",
		"total", len(rows),
		"succeeded", counts[engine.StatusSucceeded],
		"already_done", counts[engine.StatusAlreadyDone],
	)

	return report, fatal
}

// filterJob applies criteria filters and compatibility scoring.
// Returns (reason, false) when the job is filtered out.
func (p *JobPipeline) filterJob(ctx context.Context, sess *engine.Session, rc RunContext, job engine.JobPosting, row *Row) (string, bool) {
	c := rc.Criteria

	if c.EasyApplyOnly && !job.EasyApply {
		return "no-easy-apply", false
	}

	if c.Location != "" && job.Location != "" &&
		!strings.Contains(strings.ToLower(job.Location), strings.ToLower(c.Location)) {
		return "location-mismatch", false
	}

	if len(c.Keywords) > 0 && !titleMatchesAny(job.Title, c.Keywords) {
		return "keyword-mismatch", false
	}

	if c.CompatibilityThreshold > 0 {
		description, err := p.deps.Discovery.JobDescription(ctx, sess, job.ID)
		if err != nil {
			// Scoring is best-effort; an unreadable description never
			// burns the target
			p.logger.Debugw("Job description unavailable", "job_id", job.ID, "error", err)
			return "", true
		}
		row.Score = c.CompatibilityScore(description)
		if row.Score < c.CompatibilityThreshold {
			return "low-compatibility", false
		}
	}

	return "", true
}

// draftCover produces a cover letter when a template is configured.
// A drafting failure skips this target only.
func (p *JobPipeline) draftCover(ctx context.Context, rc RunContext, job engine.JobPosting, row *Row) (string, bool) {
	if p.opts.CoverTemplate == "" || p.deps.Drafting == nil {
		return "", true
	}

	draftCtx := map[string]string{
		"job_title": job.Title,
		"company":   job.Company,
		"location":  job.Location,
	}
	for k, v := range rc.Profile {
		draftCtx[k] = v
	}

	cover, err := p.deps.Drafting.Draft(ctx, p.opts.CoverTemplate, draftCtx)
	if err != nil {
		p.logger.Warnw("Cover letter drafting failed",
			"job_id", job.ID,
			"error", err,
		)
		row.Status = engine.StatusDraftingFailed
		row.Reason = "cover letter drafting failed"
		return "", false
	}
	return cover, true
}

// titleMatchesAny reports whether any keyword appears in the title,
// case-insensitively.
func titleMatchesAny(title string, keywords []string) bool {
	t := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// finalizeUnprocessed marks rows the run never reached, keeping the
// report complete after an abort.
func finalizeUnprocessed(rows []Row, now time.Time) {
	for i := range rows {
		if rows[i].Status == "" {
			rows[i].Status = engine.StatusNotAttempted
			rows[i].Reason = "run aborted"
			rows[i].Timestamp = now
		}
	}
}
