package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/config"
	"github.com/teranos/ladder/db"
	"github.com/teranos/ladder/engine/ledger"
	"github.com/teranos/ladder/logger"
)

// HistoryCmd represents the history command
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the action history ledger",
	Long: `List recorded action outcomes from the append-only history ledger.

Every terminal outcome (succeeded, failed-transient, failed-permanent)
is recorded here; a succeeded entry is what prevents a target from ever
being acted on again.

Examples:
  ladder history                 # Most recent 25 entries
  ladder history --limit 100     # More entries
  ladder history --run <run-id>  # All entries from one run, oldest first`,
	RunE: runHistory,
}

func init() {
	HistoryCmd.Flags().Int("limit", 25, "Maximum entries to show")
	HistoryCmd.Flags().String("run", "", "Show only entries from this run ID")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.OpenWithMigrations(cfg.GetDatabasePath(), logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store := ledger.NewStore(database)

	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")

	var entries []ledger.Entry
	if runID != "" {
		entries, err = store.ListByRun(runID)
	} else {
		entries, err = store.List(limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	if len(entries) == 0 {
		pterm.Info.Println("Ledger is empty")
		return nil
	}

	table := pterm.TableData{{"When", "Target", "Kind", "Outcome", "Attempts", "Reason"}}
	for _, entry := range entries {
		table = append(table, []string{
			entry.CreatedAt.Format(time.RFC3339),
			entry.TargetID,
			string(entry.Kind),
			string(entry.Outcome),
			fmt.Sprintf("%d", entry.Attempts),
			entry.Reason,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	pterm.Printf("\n%d entries\n", len(entries))
	return nil
}
