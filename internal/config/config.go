package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all dolla configuration.
type Config struct {
	General        GeneralConfig    `toml:"general"`
	Appearance     AppearanceConfig `toml:"appearance"`
	Chart          ChartConfig      `toml:"chart"`
	Entry          EntryConfig      `toml:"entry"`
	Logging        LoggingConfig    `toml:"logging"`
	Categories     []CategoryConfig `toml:"categories"`
	PaymentMethods []string         `toml:"payment_methods"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	StorePath      string `toml:"store_path,omitempty"`
	CurrencySymbol string `toml:"currency_symbol"`
	RecentCount    int    `toml:"recent_count"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme    string `toml:"theme"`
	DarkMode bool   `toml:"dark_mode"`
}

// ChartConfig holds donut geometry settings.
type ChartConfig struct {
	BaseRadius   float64 `toml:"base_radius"`
	InnerRatio   float64 `toml:"inner_ratio"`
	ExpandFactor float64 `toml:"expand_factor"`
}

// EntryConfig holds manual entry settings.
type EntryConfig struct {
	DefaultPaymentMethod string `toml:"default_payment_method"`
	ConfirmationDelayMs  int    `toml:"confirmation_delay_ms"`
	DefaultIcon          string `toml:"default_icon"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CategoryConfig seeds one category in the registry.
type CategoryConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Icon string `toml:"icon"`
}

// DefaultCategories are the categories available before the user adds any.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{ID: "1", Name: "food", Icon: "cart.fill"},
		{ID: "2", Name: "transport", Icon: "car.fill"},
		{ID: "3", Name: "shopping", Icon: "bag.fill"},
		{ID: "4", Name: "bills", Icon: "doc.text.fill"},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			CurrencySymbol: "$",
			RecentCount:    5,
		},
		Appearance: AppearanceConfig{
			Theme:    "dolla-dark",
			DarkMode: true,
		},
		Chart: ChartConfig{
			BaseRadius:   100,
			InnerRatio:   0.6,
			ExpandFactor: 1.15,
		},
		Entry: EntryConfig{
			DefaultPaymentMethod: "cash",
			ConfirmationDelayMs:  1500,
			DefaultIcon:          "tag.fill",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Categories:     DefaultCategories(),
		PaymentMethods: []string{"cash", "credit", "debit", "venmo", "zelle", "other"},
	}
}

// ConfirmationDelay returns the pause between the submit confirmation and
// navigating away from the entry screen.
func (c Config) ConfirmationDelay() time.Duration {
	if c.Entry.ConfirmationDelayMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.Entry.ConfirmationDelayMs) * time.Millisecond
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dolla")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dolla")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Arrays in the file replace the defaults rather than append to them.
	cfg.Categories = nil
	cfg.PaymentMethods = nil
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}
	if len(cfg.PaymentMethods) == 0 {
		cfg.PaymentMethods = DefaultConfig().PaymentMethods
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
