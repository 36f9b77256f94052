// Package cmd implements the dolla CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/logging"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/spf13/cobra"
)

var (
	flagStore     string
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagQuiet     bool
	flagDays      int

	appConfig config.Config
	logger    = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dolla",
	Short: "Personal expense ledger",
	Long:  "Record expenses and see where your money goes: category breakdowns, daily spend, and recent transactions.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Ledger database path (default from config, then XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.Path(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
}

// loadConfig reads the config file and installs the logger. Flags override
// the [logging] section.
func loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(flagConfig)
	if err != nil {
		return err
	}
	appConfig = cfg

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}

	// The TUI logs to a file so log lines stay off the alternate screen.
	if cmd.Name() == tuiCmd.Name() {
		return nil
	}
	l, err := logging.Setup(level, format)
	if err != nil {
		return err
	}
	logger = l.With("component", "cli")
	theme.SetMode(cfg.Appearance.Theme, cfg.Appearance.DarkMode)
	return nil
}

func storePath() string {
	switch {
	case flagStore != "":
		return flagStore
	case appConfig.General.StorePath != "":
		return appConfig.General.StorePath
	}
	return store.DefaultPath()
}

// ledgerSession bundles an open store with the ledger and registry on it.
type ledgerSession struct {
	db       *store.SQLite
	ledger   *ledger.Ledger
	registry *category.Registry
}

func (s *ledgerSession) Close() error {
	return s.db.Close()
}

// openLedger is the shared data path used by all commands.
func openLedger(ctx context.Context) (*ledgerSession, error) {
	path := storePath()
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}

	reg := category.New(appConfig.Categories,
		category.WithDefaultIcon(appConfig.Entry.DefaultIcon),
		category.WithLogger(logger))
	reg.Restore(ctx, db, store.KeyCategories)

	return &ledgerSession{
		db:       db,
		ledger:   ledger.New(db, ledger.WithLogger(logger)),
		registry: reg,
	}, nil
}

// loadRecords reads the ledger, reporting read failures instead of masking
// them as an empty ledger.
func loadRecords(ctx context.Context) ([]model.ExpenseRecord, *ledgerSession, error) {
	sess, err := openLedger(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := sess.ledger.Read(ctx)
	if err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("reading ledger: %w", err)
	}
	return records, sess, nil
}

// window returns records within the last flagDays days, and the window bounds.
func window(records []model.ExpenseRecord) ([]model.ExpenseRecord, time.Time, time.Time) {
	now := time.Now()
	since := model.DateOnly(now).AddDate(0, 0, -(flagDays - 1))
	if flagDays <= 0 {
		return records, time.Time{}, now
	}
	return pipeline.FilterByTime(records, since, now), since, now
}

func money(r model.ExpenseRecord) string {
	return cli.FormatMoney(r.Amount, appConfig.General.CurrencySymbol)
}

func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
