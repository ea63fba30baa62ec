package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/engine/pipeline"
)

// OutreachCmd represents the outreach command
var OutreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Run the recruiter messaging pipeline",
	Long: `Discover recruiter contacts, draft a personalized message for each
through the configured drafting backend, and send them subject to the
autonomy mode and the history ledger's duplicate check.

Outreach requires drafting to be enabled with a message template;
contacts at the configured current company are never messaged.

Examples:
  ladder outreach                        # Use configured criteria and mode
  ladder outreach --dry-run              # Preview recipients without sending
  ladder outreach --confirm r42          # Confirm one contact in semi-automatic mode`,
	RunE: runOutreach,
}

func init() {
	OutreachCmd.Flags().String("location", "", "Override location filter")
	OutreachCmd.Flags().Int("max", 0, "Override the per-run target cap")
	OutreachCmd.Flags().Bool("dry-run", false, "Observe only, send no messages")
	OutreachCmd.Flags().StringArray("confirm", nil, "Contact IDs confirmed for semi-automatic execution")
}

func runOutreach(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	location, _ := cmd.Flags().GetString("location")
	maxTargets, _ := cmd.Flags().GetInt("max")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	confirmed, _ := cmd.Flags().GetStringArray("confirm")

	mode, err := resolveMode(rt.cfg.Engine.Mode, dryRun)
	if err != nil {
		return err
	}

	rc := pipeline.NewRunContext(mode, rt.criteria(nil, location, maxTargets)).
		WithConfirmed(confirmed).
		WithProfile(rt.profile())

	pterm.Info.Printf("Starting outreach run %s in %s mode\n", rc.RunID, mode)

	p := pipeline.NewMessagingPipeline(rt.deps, rt.opts)
	report, runErr := p.Run(cmd.Context(), rc)
	renderReport(report)

	if runErr != nil {
		pterm.Error.Printf("Run aborted: %v\n", runErr)
		return runErr
	}
	pterm.Success.Println("Outreach run complete")
	return nil
}
