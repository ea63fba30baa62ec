package commands

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/ladder/config"
	"github.com/teranos/ladder/db"
	"github.com/teranos/ladder/draft"
	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/backoff"
	"github.com/teranos/ladder/engine/executor"
	"github.com/teranos/ladder/engine/ledger"
	"github.com/teranos/ladder/engine/pipeline"
	"github.com/teranos/ladder/engine/ratelimit"
	"github.com/teranos/ladder/engine/session"
	"github.com/teranos/ladder/linkedin"
	"github.com/teranos/ladder/logger"
)

// runtime bundles the wired engine components a pipeline command needs.
type runtime struct {
	cfg      *config.Config
	database *sql.DB
	client   *linkedin.Client
	watcher  *config.ConfigWatcher
	deps     pipeline.Deps
	opts     pipeline.Options
}

// newRuntime loads config, opens the ledger database and wires the
// executor stack. Callers must Close when done.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	if err := validateTemplates(cfg); err != nil {
		return nil, err
	}

	database, err := db.OpenWithMigrations(cfg.GetDatabasePath(), logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	client := linkedin.NewClient(linkedin.Config{
		BaseURL:           cfg.LinkedIn.BaseURL,
		ClientID:          cfg.LinkedIn.ClientID,
		ClientSecret:      cfg.LinkedIn.ClientSecret,
		RedirectURI:       cfg.LinkedIn.RedirectURI,
		TokenPath:         cfg.LinkedIn.TokenPath,
		RequestsPerMinute: cfg.LinkedIn.RequestsPerMinute,
		TimeoutSeconds:    cfg.LinkedIn.TimeoutSeconds,
		Logger:            logger.ComponentLogger("linkedin"),
	})

	sessions := session.NewManager(client,
		time.Duration(cfg.Engine.SessionSafetyMarginSeconds)*time.Second,
		cfg.Engine.RefreshRetries,
		logger.ComponentLogger("session"))

	store := ledger.NewStore(database)

	policy := backoff.NewPolicy(
		time.Duration(cfg.Engine.BackoffBaseMS)*time.Millisecond,
		time.Duration(cfg.Engine.BackoffCapMS)*time.Millisecond,
		cfg.Engine.MaxAttempts)

	limiter := ratelimit.NewLimiter(cfg.Engine.WindowRequests,
		time.Duration(cfg.Engine.WindowSeconds)*time.Second)

	exec := executor.New(sessions, store, client, policy, limiter,
		logger.ComponentLogger("executor"))

	var drafting engine.DraftingPort
	if cfg.Drafting.Enabled {
		drafting = draft.NewClient(draft.Config{
			BaseURL:     cfg.Drafting.BaseURL,
			Model:       cfg.Drafting.Model,
			Temperature: cfg.Drafting.Temperature,
			MaxTokens:   cfg.Drafting.MaxTokens,
			Timeout:     time.Duration(cfg.Drafting.TimeoutSeconds) * time.Second,
			Logger:      logger.ComponentLogger("draft"),
		})
	}

	// Watch the overrides file so a long rate-limited run picks up
	// option changes without a restart. Credentials and the database
	// path stay fixed for the process lifetime.
	var watcher *config.ConfigWatcher
	if path := config.LocalConfigPath(); path != "" {
		watcher, err = config.NewConfigWatcher(path)
		if err != nil {
			logger.Debugw("Config watcher unavailable", "path", path, "error", err)
			watcher = nil
		} else {
			watcher.OnReload(func(fresh *config.Config) error {
				limiter.SetBudget(fresh.Engine.WindowRequests,
					time.Duration(fresh.Engine.WindowSeconds)*time.Second)
				return nil
			})
			config.SetGlobalWatcher(watcher)
			watcher.Start()
		}
	}

	return &runtime{
		cfg:      cfg,
		database: database,
		client:   client,
		watcher:  watcher,
		deps: pipeline.Deps{
			Sessions:  sessions,
			Discovery: client,
			Drafting:  drafting,
			Executor:  exec,
			Ledger:    store,
			Logger:    logger.ComponentLogger("pipeline"),
		},
		opts: pipeline.Options{
			Workers:         cfg.Engine.Workers,
			CoverTemplate:   cfg.Drafting.CoverTemplate,
			MessageTemplate: cfg.Drafting.MessageTemplate,
		},
	}, nil
}

func (rt *runtime) Close() {
	if rt.watcher != nil {
		config.SetGlobalWatcher(nil)
		if err := rt.watcher.Stop(); err != nil {
			logger.Warnw("Failed to stop config watcher", "error", err)
		}
	}
	if rt.database != nil {
		rt.database.Close()
	}
}

// validateTemplates rejects malformed drafting templates before a run
// starts. Only checked when drafting is enabled; the pipelines never
// fill a template otherwise.
func validateTemplates(cfg *config.Config) error {
	if !cfg.Drafting.Enabled {
		return nil
	}
	if err := draft.ValidateTemplate(cfg.Drafting.CoverTemplate); err != nil {
		return fmt.Errorf("cover template invalid: %w", err)
	}
	if err := draft.ValidateTemplate(cfg.Drafting.MessageTemplate); err != nil {
		return fmt.Errorf("message template invalid: %w", err)
	}
	return nil
}

// criteria builds discovery criteria from config, with CLI overrides
// applied where the flag was set.
func (rt *runtime) criteria(keywords []string, location string, maxTargets int) engine.Criteria {
	c := engine.Criteria{
		Keywords:               rt.cfg.Search.Keywords,
		Location:               rt.cfg.Search.Location,
		EasyApplyOnly:          rt.cfg.Search.EasyApplyOnly,
		CompatibilityThreshold: rt.cfg.Search.CompatibilityThreshold,
		ExcludeCompany:         rt.cfg.Search.CurrentCompany,
		RecruiterTitles:        rt.cfg.Search.RecruiterTitles,
		MaxTargets:             rt.cfg.Engine.MaxTargets,
	}
	if len(keywords) > 0 {
		c.Keywords = keywords
	}
	if location != "" {
		c.Location = location
	}
	if maxTargets > 0 {
		c.MaxTargets = maxTargets
	}
	return c
}

// profile builds the drafting context shared by every target in a run.
func (rt *runtime) profile() map[string]string {
	p := map[string]string{}
	if len(rt.cfg.Search.Skills) > 0 {
		skills := ""
		for i, s := range rt.cfg.Search.Skills {
			if i > 0 {
				skills += ", "
			}
			skills += s
		}
		p["skills"] = skills
	}
	if rt.cfg.Search.CurrentCompany != "" {
		p["current_company"] = rt.cfg.Search.CurrentCompany
	}
	return p
}

// renderReport prints a run report as a table plus a status summary.
func renderReport(report *pipeline.Report) {
	if report == nil || len(report.Entries) == 0 {
		pterm.Info.Println("No targets processed")
		return
	}

	table := pterm.TableData{report.Header()}
	table = append(table, report.Rows()...)
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		pterm.Error.Printf("Failed to render report: %v", err)
	}

	pterm.Println()
	counts := report.Counts()
	for _, status := range []engine.Status{
		engine.StatusSucceeded, engine.StatusAlreadyDone, engine.StatusPendingConfirmation,
		engine.StatusObserved, engine.StatusFiltered, engine.StatusDraftingFailed,
		engine.StatusFailedTransient, engine.StatusFailedPermanent, engine.StatusNotAttempted,
	} {
		if n := counts[status]; n > 0 {
			pterm.Printf("  %-20s %d\n", string(status), n)
		}
	}
	pterm.Printf("  %-20s %s\n", "duration",
		report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond))
}
