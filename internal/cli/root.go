// Package cli provides the thin cobra entry points around the
// accounting engine: feeding change events, forcing recalculations, and
// seeding reference data.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verdantio/carbonledger/internal/config"
	"github.com/verdantio/carbonledger/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// cfg is the loaded configuration, set in PersistentPreRunE.
var cfg config.Config //nolint:gochecknoglobals // Set once at startup

// NewRootCmd creates the root cobra command.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "carbonledger",
		Short:   "Carbon and energy accounting engine",
		Long:    "carbonledger converts resource consumptions into carbon and energy figures and maintains per-year summaries with efficiency labels.",
		Version: ver,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			logCfg := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logCfg.Level = "debug"
				logCfg.Format = "console"
			}
			logger = logging.ComponentLogger(logging.New(logCfg, os.Stderr), "cli")
			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "path to the configuration file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newRecalculateCmd())
	cmd.AddCommand(newSeedCmd())
	return cmd
}

// Execute runs the root command.
func Execute(ver string) {
	if err := NewRootCmd(ver).Execute(); err != nil {
		os.Exit(1)
	}
}
