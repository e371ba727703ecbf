package main

import (
	"context"
	"fmt"
	"log/slog"

	"ecolabel/internal/adapters/memory"
	pg "ecolabel/internal/adapters/postgres"
	"ecolabel/internal/adapters/sqlite"
	"ecolabel/internal/config"
	"ecolabel/internal/domain"
	"ecolabel/internal/ingredients"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
	"ecolabel/internal/reference"
	"ecolabel/internal/scoring"
	"ecolabel/internal/services/assessment"
	"ecolabel/internal/services/grading"
	"ecolabel/internal/services/products"
)

type store struct {
	ports.Store
	ping func(ctx context.Context) error
}

// openStore connects the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return store{}, err
		}
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
		return store{Store: s, ping: func(ctx context.Context) error {
			sqlDB, err := s.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}}, nil
	case "memory":
		logger.Warn("using in-memory store, nothing is persisted")
		return store{Store: memory.New()}, nil
	default:
		if cfg.DatabaseURL == "" {
			return store{}, config.ErrNoDatabaseURL
		}
		if err := pg.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return store{}, err
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return store{}, fmt.Errorf("db connect: %w", err)
		}
		logger.Info("using postgres store")
		return store{Store: db, ping: db.Pool.Ping}, nil
	}
}

type app struct {
	lca     *assessment.Service
	scores  *grading.Service
	catalog *products.Service
}

func newApp(st ports.Store, tables *reference.Tables, cfg config.Config, rec *metrics.Recorder, logger *slog.Logger) (app, error) {
	engine, err := scoring.NewEngine(scoring.DefaultRanges(), domain.Weights{
		CO2:    cfg.WeightCO2,
		Water:  cfg.WeightWater,
		Energy: cfg.WeightEnergy,
	})
	if err != nil {
		return app{}, fmt.Errorf("score weights: %w", err)
	}

	var extractor ingredients.Extractor = ingredients.RegexExtractor{}
	if cfg.NLPServiceURL != "" {
		extractor = ingredients.NewRemoteExtractor(ingredients.RemoteConfig{
			BaseURL:  cfg.NLPServiceURL,
			CacheTTL: cfg.CacheTTL,
		}, logger)
		logger.Info("using remote ingredient extractor", "url", cfg.NLPServiceURL)
	}

	a := app{
		lca:    assessment.New(st, tables, rec, logger),
		scores: grading.New(st, engine, cfg.CacheTTL, rec, logger),
	}
	a.catalog = products.New(products.Deps{
		Products:  st,
		Jobs:      st,
		Extractor: extractor,
		Tables:    tables,
		LCA:       a.lca,
		Scores:    a.scores,
		Defaults: products.Defaults{
			PackagingMaterial: cfg.DefaultPackagingMaterial,
			PackagingWeightKg: cfg.DefaultPackagingWeightKg,
		},
		Metrics: rec,
		Logger:  logger,
	})
	return a, nil
}
