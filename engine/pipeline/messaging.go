package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/autonomy"
	"github.com/teranos/ladder/errors"
)

// MessagingPipeline orchestrates recruiter discovery, message
// drafting, and sending. It follows the job pipeline's shape with an
// added drafting step; a drafting failure skips one target, never the
// run.
type MessagingPipeline struct {
	deps    Deps
	opts    Options
	timeNow func() time.Time
	logger  *zap.SugaredLogger
}

// NewMessagingPipeline creates a messaging pipeline.
func NewMessagingPipeline(deps Deps, opts Options) *MessagingPipeline {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MessagingPipeline{
		deps:    deps,
		opts:    opts,
		timeNow: time.Now,
		logger:  log,
	}
}

// Run executes one recruiter-outreach run.
func (p *MessagingPipeline) Run(ctx context.Context, rc RunContext) (*Report, error) {
	report := &Report{
		RunID:     rc.RunID,
		Mode:      rc.Mode.String(),
		StartedAt: p.timeNow(),
	}
	defer func() { report.CompletedAt = p.timeNow() }()

	if !rc.Mode.IsValid() {
		return report, errors.Wrapf(errors.ErrValidation, "invalid autonomy mode %q", rc.Mode)
	}
	if p.deps.Drafting == nil || p.opts.MessageTemplate == "" {
		return report, errors.Wrap(errors.ErrValidation, "messaging requires a drafting backend and template")
	}

	log := p.logger.With("run_id", rc.RunID, "mode", rc.Mode)

	sess, err := p.deps.Sessions.Acquire(ctx)
	if err != nil {
		return report, err
	}

	contacts, err := p.deps.Discovery.FindContacts(ctx, sess, rc.Criteria)
	if err != nil {
		return report, errors.Wrap(err, "contact discovery failed")
	}
	if rc.Criteria.MaxTargets > 0 && len(contacts) > rc.Criteria.MaxTargets {
		contacts = contacts[:rc.Criteria.MaxTargets]
	}

	log.Infow("Contacts discovered", "count", len(contacts))

	rows := make([]Row, len(contacts))
	var items []workItem

	for i, contact := range contacts {
		row := &rows[i]
		row.TargetID = contact.ID
		row.Name = contact.Name
		row.Company = contact.Company
		row.Timestamp = p.timeNow()

		if reason, ok := filterContact(rc.Criteria, contact); !ok {
			row.Status = engine.StatusFiltered
			row.Reason = reason
			continue
		}

		done, err := p.deps.Ledger.HasSucceeded(contact.ID, engine.KindMessage)
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

		switch rc.Mode.Gate(contact.ID, rc.Confirmed) {
		case autonomy.Observe:
			row.Status = engine.StatusObserved
		case autonomy.Stage:
			row.Status = engine.StatusPendingConfirmation
		case autonomy.Execute:
			text, ok := p.draftMessage(ctx, rc, contact, row)
			if !ok {
				continue
			}
			items = append(items, workItem{idx: i, target: contact, kind: engine.KindMessage, payload: text})
		}
	}

	fatal := executeBatch(ctx, p.deps.Executor, rc.RunID, p.opts.Workers, items, rows, p.timeNow)
	finalizeUnprocessed(rows, p.timeNow())
	report.Entries = rows

	counts := report.Counts()
	log.Infow("Messaging run complete",
		"total", len(rows),
		"succeeded", counts[engine.StatusSucceeded],
		"drafting_failed", counts[engine.StatusDraftingFailed],
	)

	return report, fatal
}

// draftMessage produces personalized outreach text for one contact.
func (p *MessagingPipeline) draftMessage(ctx context.Context, rc RunContext, contact engine.RecruiterContact, row *Row) (string, bool) {
	draftCtx := map[string]string{
		"name":    contact.Name,
		"title":   contact.Title,
		"company": contact.Company,
	}
	for k, v := range rc.Profile {
		draftCtx[k] = v
	}

	text, err := p.deps.Drafting.Draft(ctx, p.opts.MessageTemplate, draftCtx)
	if err != nil {
		p.logger.Warnw("Message drafting failed",
			"contact_id", contact.ID,
			"error", err,
		)
		row.Status = engine.StatusDraftingFailed
		row.Reason = "message drafting failed"
		return "", false
	}
	return text, true
}

// filterContact keeps recruiters outside the user's own company.
func filterContact(c engine.Criteria, contact engine.RecruiterContact) (string, bool) {
	if len(c.RecruiterTitles) > 0 && !contact.IsRecruiter(c.RecruiterTitles) {
		return "not-recruiter", false
	}
	if c.ExcludeCompany != "" &&
		strings.EqualFold(contact.Company, c.ExcludeCompany) {
		return "excluded-company", false
	}
	return "", true
}
