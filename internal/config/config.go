// Package config loads and validates the engine configuration from a
// YAML file, applying defaults for everything not set.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a value.
const (
	// DefaultFreshnessWindowDays is how long a full summary
	// recalculation stays fresh before incremental updates are refused
	// and a rebuild is forced.
	DefaultFreshnessWindowDays = 14

	// DefaultRebuildConcurrency bounds the per-consumption fan-out of
	// the full-rebuild path.
	DefaultRebuildConcurrency = 4

	// DefaultFallbackCountry is the engine-wide country id consulted
	// when a resolved metric lacks a required nested factor.
	DefaultFallbackCountry = "default"

	// DefaultDatabasePath is the SQLite database file.
	DefaultDatabasePath = "carbonledger.db"

	// DefaultConsumptionVersion and DefaultSummaryVersion are the two
	// independent engine version counters.
	DefaultConsumptionVersion = "1.0.0"
	DefaultSummaryVersion     = "1.0.0"
)

// Config validation errors.
var (
	ErrBadConsumptionVersion = errors.New("engine.consumption_version is not valid semver")
	ErrBadSummaryVersion     = errors.New("engine.summary_version is not valid semver")
	ErrBadFreshnessWindow    = errors.New("engine.freshness_window_days must be positive")
	ErrBadConcurrency        = errors.New("engine.rebuild_concurrency must be positive")
	ErrFallbackCountryEmpty  = errors.New("engine.fallback_country cannot be empty")
)

// EngineConfig carries the accounting engine's tunables.
type EngineConfig struct {
	// ConsumptionVersion gates raw emission recomputation: a user whose
	// stamp differs gets every consumption recomputed.
	ConsumptionVersion string `yaml:"consumption_version"`
	// SummaryVersion gates summary maintenance: a stamp mismatch forces
	// the full-rebuild path instead of an incremental fold.
	SummaryVersion string `yaml:"summary_version"`
	// FreshnessWindowDays bounds how old the last full recalculation
	// may be for the incremental path to remain eligible.
	FreshnessWindowDays int `yaml:"freshness_window_days"`
	// FallbackCountry is consulted when a nested factor is absent from
	// the user's own country metric.
	FallbackCountry string `yaml:"fallback_country"`
	// RebuildConcurrency bounds the rebuild fan-out.
	RebuildConcurrency int `yaml:"rebuild_concurrency"`
}

// LoggingConfig mirrors internal/logging.Config in the config file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig locates the document store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Config is the root configuration document.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Engine: EngineConfig{
			ConsumptionVersion:  DefaultConsumptionVersion,
			SummaryVersion:      DefaultSummaryVersion,
			FreshnessWindowDays: DefaultFreshnessWindowDays,
			FallbackCountry:     DefaultFallbackCountry,
			RebuildConcurrency:  DefaultRebuildConcurrency,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads path, overlays it on Default, and validates the result.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Engine.ConsumptionVersion == "" {
		c.Engine.ConsumptionVersion = d.Engine.ConsumptionVersion
	}
	if c.Engine.SummaryVersion == "" {
		c.Engine.SummaryVersion = d.Engine.SummaryVersion
	}
	if c.Engine.FreshnessWindowDays == 0 {
		c.Engine.FreshnessWindowDays = d.Engine.FreshnessWindowDays
	}
	if c.Engine.FallbackCountry == "" {
		c.Engine.FallbackCountry = d.Engine.FallbackCountry
	}
	if c.Engine.RebuildConcurrency == 0 {
		c.Engine.RebuildConcurrency = d.Engine.RebuildConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c Config) Validate() error {
	if _, err := semver.NewVersion(c.Engine.ConsumptionVersion); err != nil {
		return fmt.Errorf("%w: got %q", ErrBadConsumptionVersion, c.Engine.ConsumptionVersion)
	}
	if _, err := semver.NewVersion(c.Engine.SummaryVersion); err != nil {
		return fmt.Errorf("%w: got %q", ErrBadSummaryVersion, c.Engine.SummaryVersion)
	}
	if c.Engine.FreshnessWindowDays <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadFreshnessWindow, c.Engine.FreshnessWindowDays)
	}
	if c.Engine.RebuildConcurrency <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadConcurrency, c.Engine.RebuildConcurrency)
	}
	if c.Engine.FallbackCountry == "" {
		return ErrFallbackCountryEmpty
	}
	return nil
}
