package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ecolabel/internal/config"
	"ecolabel/internal/logging"
	"ecolabel/internal/reference"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ecolabel",
	Short: "Life-cycle based A-E eco-scores for food products",
	Long: `ecolabel turns product data (ingredients, origin, packaging, transport)
into an environmental A-E grade backed by a life-cycle assessment.

Configuration is read from the environment, optionally layered over a
YAML config file given with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(factorsCmd)
}

// setup loads the configuration and builds the process logger. A missing
// DATABASE_URL only fails the commands that open the postgres store.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil && !errors.Is(err, config.ErrNoDatabaseURL) {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel).With("env", cfg.Env), nil
}

func loadTables(cfg config.Config, logger *slog.Logger) *reference.Tables {
	tables, _ := reference.Load(reference.Sources{
		EcoinventPath: cfg.EcoinventPath,
		FAOPath:       cfg.FAOPath,
		ADEMEPath:     cfg.ADEMEPath,
		Overlays:      cfg.FactorOverlays,
	}, logger)
	return tables
}
