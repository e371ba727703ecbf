package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "ecolabel/internal/adapters/http"
	"ecolabel/internal/metrics"
	"ecolabel/internal/workers/scorerunner"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background score workers",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := metrics.NewDefault()
	if err != nil {
		return err
	}
	a, err := newApp(st, loadTables(cfg, logger), cfg, rec, logger)
	if err != nil {
		return err
	}

	api := httpadapter.New(httpadapter.Deps{
		LCA:       a.lca,
		Scores:    a.scores,
		Catalog:   a.catalog,
		Jobs:      st,
		Processor: a.catalog,
		Metrics:   rec,
		Logger:    logger,
		Ready:     st.ping,
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if cfg.ScoreWorkers > 0 {
		runner := scorerunner.New(st, a.catalog, cfg.ScoreWorkers, cfg.PollInterval, rec, logger)
		g.Go(func() error {
			runner.Run(gctx)
			return nil
		})
		logger.Info("score workers started", "workers", cfg.ScoreWorkers)
	}
	return g.Wait()
}
