package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/config"
	"github.com/teranos/ladder/db"
	"github.com/teranos/ladder/draft"
	"github.com/teranos/ladder/logger"
)

// DoctorCmd represents the doctor command
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that configured collaborators are reachable",
	Long: `Validate the configuration, open the ledger database, and ping the
drafting backend if one is enabled. Run this after changing config to
catch problems before a pipeline run does.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	failures := 0

	if err := cfg.Validate(); err != nil {
		pterm.Error.Printf("Configuration: %v\n", err)
		failures++
	} else {
		pterm.Success.Println("Configuration valid")
	}

	database, err := db.OpenWithMigrations(cfg.GetDatabasePath(), logger.Logger)
	if err != nil {
		pterm.Error.Printf("Ledger database: %v\n", err)
		failures++
	} else {
		pterm.Success.Printf("Ledger database at %s\n", cfg.GetDatabasePath())
		database.Close()
	}

	if cfg.Drafting.Enabled {
		client := draft.NewClient(draft.Config{
			BaseURL: cfg.Drafting.BaseURL,
			Model:   cfg.Drafting.Model,
			Timeout: 10 * time.Second,
			Logger:  logger.ComponentLogger("draft"),
		})
		if err := client.Ping(cmd.Context()); err != nil {
			pterm.Error.Printf("Drafting backend: %v\n", err)
			failures++
		} else {
			pterm.Success.Printf("Drafting backend at %s\n", cfg.Drafting.BaseURL)
		}
	} else {
		pterm.Info.Println("Drafting disabled, skipping backend check")
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}
