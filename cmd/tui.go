package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/dolla/internal/logging"
	"github.com/theirongolddev/dolla/internal/tui"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	level, format := appConfig.Logging.Level, appConfig.Logging.Format
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	log, closer, err := logging.SetupFile(logging.LogPath(), level, format)
	if err != nil {
		return err
	}
	defer closer.Close()

	theme.SetMode(appConfig.Appearance.Theme, appConfig.Appearance.DarkMode)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	_, statErr := os.Stat(flagConfig)
	app := tui.NewApp(tui.Options{
		Config:     appConfig,
		ConfigPath: flagConfig,
		StorePath:  storePath(),
		NeedSetup:  os.IsNotExist(statErr),
		Logger:     log,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(tui.App); ok {
		if cerr := m.Close(); cerr != nil {
			log.Error("closing ledger", "error", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
