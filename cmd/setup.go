package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Count existing expenses for the welcome note; a missing ledger is fine.
	records := 0
	if recs, sess, err := loadRecords(context.Background()); err == nil {
		records = len(recs)
		sess.Close()
	}

	cfg, err := tui.RunSetup(appConfig, flagConfig, records)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled; nothing changed.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if err := config.SaveTo(flagConfig, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", flagConfig)
	fmt.Println("  Run `dolla setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
