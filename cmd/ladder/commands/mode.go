package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/config"
	"github.com/teranos/ladder/engine/autonomy"
)

// ModeCmd represents the mode command
var ModeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or set the autonomy mode",
	Long: `Show or set the autonomy mode that governs pipeline runs.

  observation     - discover and report, perform no actions
  semi-automatic  - act only on targets confirmed with --confirm
  full-automatic  - act on every eligible target

The mode is persisted to the user's local config and applies to every
subsequent run until changed.

Examples:
  ladder mode                       # Show current mode
  ladder mode set observation       # Change mode
  ladder mode set full-automatic`,
	RunE: runModeShow,
}

var modeSetCmd = &cobra.Command{
	Use:   "set <mode>",
	Short: "Set the autonomy mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runModeSet,
}

func init() {
	ModeCmd.AddCommand(modeSetCmd)
}

func runModeShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pterm.Printf("Autonomy mode: %s\n", cfg.Engine.Mode)
	return nil
}

func runModeSet(cmd *cobra.Command, args []string) error {
	mode, err := autonomy.Parse(args[0])
	if err != nil {
		return err
	}
	if err := config.UpdateEngineMode(mode.String()); err != nil {
		return fmt.Errorf("failed to persist mode: %w", err)
	}
	pterm.Success.Printf("Autonomy mode set to %s\n", mode)
	return nil
}
