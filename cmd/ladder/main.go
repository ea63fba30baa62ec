package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/ladder/cmd/ladder/commands"
	"github.com/teranos/ladder/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Ladder - job-search automation engine",
	Long: `Ladder - autonomous job-search orchestration.

Ladder discovers job postings and recruiter contacts, applies rate-limited
actions against them, and records every terminal outcome in an append-only
history ledger so no target is ever acted on twice.

Available commands:
  apply    - Run the job application pipeline
  outreach - Run the recruiter messaging pipeline
  history  - Show the action history ledger
  doctor   - Check that configured collaborators are reachable
  login    - Authenticate and cache a session token
  mode     - Show or set the autonomy mode
  config   - Manage configuration
  version  - Show version information

Examples:
  ladder apply --keywords "Python Developer"   # Apply to matching jobs
  ladder apply --dry-run                       # Preview without acting
  ladder outreach                              # Message recruiters
  ladder history --limit 20                    # Recent ledger entries
  ladder mode set semi-automatic               # Require confirmation per target`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.InitializeWithLevel(jsonLogs, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ApplyCmd)
	rootCmd.AddCommand(commands.OutreachCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.LogoutCmd)
	rootCmd.AddCommand(commands.ModeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
