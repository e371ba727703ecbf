package main

import (
	"github.com/spf13/cobra"

	pg "ecolabel/internal/adapters/postgres"
	"ecolabel/internal/adapters/sqlite"
	"ecolabel/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		switch cfg.StoreDriver {
		case "postgres":
			if cfg.DatabaseURL == "" {
				return config.ErrNoDatabaseURL
			}
			return pg.Migrate(cmd.Context(), cfg.DatabaseURL, logger)
		case "sqlite":
			s, err := sqlite.Open(cfg.SQLitePath)
			if err != nil {
				return err
			}
			logger.Info("sqlite schema up to date", "path", cfg.SQLitePath)
			return s.Close()
		default:
			logger.Info("nothing to migrate", "driver", cfg.StoreDriver)
			return nil
		}
	},
}
