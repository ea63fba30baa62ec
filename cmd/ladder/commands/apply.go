package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/engine/autonomy"
	"github.com/teranos/ladder/engine/pipeline"
)

// ApplyCmd represents the apply command
var ApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Run the job application pipeline",
	Long: `Discover job postings matching the configured search criteria and
apply to each one that passes filtering and the history ledger's
duplicate check.

The autonomy mode governs what happens per target:
  observation     - report what would be done, touch nothing
  semi-automatic  - only act on targets named with --confirm
  full-automatic  - act on every eligible target

Examples:
  ladder apply                                  # Use configured criteria and mode
  ladder apply --keywords "Go Engineer"         # Override search keywords
  ladder apply --dry-run                        # Force observation mode
  ladder apply --confirm j123 --confirm j456    # Confirm specific targets`,
	RunE: runApply,
}

func init() {
	ApplyCmd.Flags().StringSlice("keywords", nil, "Override search keywords")
	ApplyCmd.Flags().String("location", "", "Override location filter")
	ApplyCmd.Flags().Int("max", 0, "Override the per-run target cap")
	ApplyCmd.Flags().Bool("dry-run", false, "Observe only, perform no actions")
	ApplyCmd.Flags().StringArray("confirm", nil, "Target IDs confirmed for semi-automatic execution")
}

func runApply(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	location, _ := cmd.Flags().GetString("location")
	maxTargets, _ := cmd.Flags().GetInt("max")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	confirmed, _ := cmd.Flags().GetStringArray("confirm")

	mode, err := resolveMode(rt.cfg.Engine.Mode, dryRun)
	if err != nil {
		return err
	}

	rc := pipeline.NewRunContext(mode, rt.criteria(keywords, location, maxTargets)).
		WithConfirmed(confirmed).
		WithProfile(rt.profile())

	pterm.Info.Printf("Starting application run %s in %s mode\n", rc.RunID, mode)

	p := pipeline.NewJobPipeline(rt.deps, rt.opts)
	report, runErr := p.Run(cmd.Context(), rc)
	renderReport(report)

	if runErr != nil {
		pterm.Error.Printf("Run aborted: %v\n", runErr)
		return runErr
	}
	pterm.Success.Println("Application run complete")
	return nil
}

// resolveMode maps the configured mode, with --dry-run forcing
// observation regardless of configuration.
func resolveMode(configured string, dryRun bool) (autonomy.Mode, error) {
	if dryRun {
		return autonomy.Observation, nil
	}
	mode, err := autonomy.Parse(configured)
	if err != nil {
		return "", fmt.Errorf("invalid autonomy mode %q: %w", configured, err)
	}
	return mode, nil
}
