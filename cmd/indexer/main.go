package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cetusindexer/internal/config"
	"cetusindexer/internal/dex"
	"cetusindexer/internal/indexer"
	"cetusindexer/internal/metrics"
	"cetusindexer/internal/storage"
	"cetusindexer/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Cetus CLMM event indexer for Sui checkpoints",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index checkpoints into Postgres (or JSONL when no DSN is set)",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("checkpoints-dir", "./checkpoints", "directory of <sequence_number>.json checkpoint files")
	runCmd.Flags().Uint64("from", 0, "start checkpoint (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end checkpoint (inclusive), 0 means no end")
	runCmd.Flags().Int("concurrency", 100, "checkpoints processed concurrently")
	runCmd.Flags().Bool("follow", false, "keep polling for new checkpoints")
	runCmd.Flags().Duration("poll-interval", time.Second, "poll interval in follow mode")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Bool("ensure-schema", true, "create tables if missing")
	runCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path when no DSN is set")
	runCmd.Flags().String("progress-file", "./data/progress.json", "progress file used without a DSN")
	runCmd.Flags().String("progress-name", "cetus", "indexer_state row name used with a DSN")
	addRegistryFlags(runCmd)
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts per checkpoint")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().Int("commit-chunk-size", 500, "rows per INSERT statement")
	runCmd.Flags().String("metrics-addr", "", "serve /metrics on this address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode checkpoints into JSONL records and decode errors",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("checkpoints-dir", "./checkpoints", "directory of <sequence_number>.json checkpoint files")
	decodeCmd.Flags().Uint64("from", 0, "start checkpoint (inclusive)")
	decodeCmd.Flags().Uint64("to", 0, "end checkpoint (inclusive), 0 means latest available")
	decodeCmd.Flags().String("out", "./data/events.jsonl", "output records JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	addRegistryFlags(decodeCmd)
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over the indexed tables",
		RunE:  runServe,
	}

	serveCmd.Flags().String("addr", "0.0.0.0:8080", "listen address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRegistryFlags(cmd *cobra.Command) {
	cmd.Flags().String("swap-event-type", "", "swap event type (default Cetus mainnet pool::SwapEvent)")
	cmd.Flags().String("add-liquidity-event-type", "", "add liquidity event type (default Cetus mainnet pool::AddLiquidityEvent)")
	cmd.Flags().String("remove-liquidity-event-type", "", "remove liquidity event type (default Cetus mainnet pool::RemoveLiquidityEvent)")
	cmd.Flags().String("swap-layout", "clmm", "swap payload layout (clmm, minimal)")
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, err := dex.NewRegistry(cfg.Registry)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, m, logger)
	}

	var (
		committer storage.Committer
		progress  indexer.ProgressStore
	)
	if cfg.DryRun() {
		committer = storage.NewJSONLSink(cfg.Out)
		progress = indexer.NewFileProgressStore(cfg.ProgressFile)
	} else {
		store, err := postgres.NewStore(ctx, cfg.PGDSN,
			postgres.WithChunkSize(cfg.CommitChunkSize),
			postgres.WithMetrics(m),
			postgres.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
		}
		committer = store
		progress = store.Progress(cfg.ProgressName)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromCheckpoint: cfg.FromCheckpoint,
		ToCheckpoint:   cfg.ToCheckpoint,
		Concurrency:    cfg.Concurrency,
		Follow:         cfg.Follow,
		PollInterval:   cfg.PollInterval,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, indexer.NewDirSource(cfg.CheckpointsDir), indexer.NewExtractor(registry, logger, m), committer, progress, logger, m)

	logger.Info("indexer start",
		zap.String("checkpoints_dir", cfg.CheckpointsDir),
		zap.Uint64("from", cfg.FromCheckpoint),
		zap.Uint64("to", cfg.ToCheckpoint),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Bool("follow", cfg.Follow),
		zap.Bool("dry_run", cfg.DryRun()),
		zap.Stringers("event_types", descriptorTypes(registry)),
	)

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("indexer stopped")
			return nil
		}
		return err
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}

func descriptorTypes(registry *dex.Registry) []fmt.Stringer {
	descs := registry.Descriptors()
	out := make([]fmt.Stringer, 0, len(descs))
	for _, desc := range descs {
		out = append(out, desc.Type)
	}
	return out
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
