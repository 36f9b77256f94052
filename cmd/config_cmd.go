package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/dolla/internal/logging"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", flagConfig)
	if _, err := os.Stat(flagConfig); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Ledger:          %s\n", storePath())
	fmt.Printf("    Currency symbol: %s\n", cfg.General.CurrencySymbol)
	fmt.Printf("    Recent count:    %d\n", cfg.General.RecentCount)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:     %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Dark mode: %v\n", cfg.Appearance.DarkMode)
	fmt.Println()

	fmt.Println("  [Chart]")
	fmt.Printf("    Base radius:   %.0f\n", cfg.Chart.BaseRadius)
	fmt.Printf("    Inner ratio:   %.2f\n", cfg.Chart.InnerRatio)
	fmt.Printf("    Expand factor: %.2f\n", cfg.Chart.ExpandFactor)
	fmt.Println()

	fmt.Println("  [Entry]")
	fmt.Printf("    Default payment:    %s\n", cfg.Entry.DefaultPaymentMethod)
	fmt.Printf("    Confirmation delay: %s\n", cfg.ConfirmationDelay())
	fmt.Printf("    Payment methods:    %s\n", strings.Join(cfg.PaymentMethods, ", "))
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Printf("    TUI log: %s\n", logging.LogPath())
	fmt.Println()

	fmt.Println("  [[categories]]")
	for _, c := range cfg.Categories {
		fmt.Printf("    %-4s %-12s %s\n", c.ID, c.Name, c.Icon)
	}
	fmt.Println()

	fmt.Println("  Run `dolla setup` to reconfigure.")
	return nil
}
