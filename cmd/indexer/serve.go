package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cetusindexer/internal/api"
	"cetusindexer/internal/config"
	"cetusindexer/internal/metrics"
	"cetusindexer/internal/storage/postgres"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.WithMetrics(m), postgres.WithLogger(logger))
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("serve start", zap.String("addr", cfg.Addr), zap.String("version", api.Version))
	return api.NewServer(store, logger, m).ListenAndServe(ctx, cfg.Addr)
}
