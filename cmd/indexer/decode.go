package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cetusindexer/internal/config"
	"cetusindexer/internal/dex"
	"cetusindexer/internal/indexer"
	"cetusindexer/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	registry, err := dex.NewRegistry(cfg.Registry)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := indexer.NewDirSource(cfg.CheckpointsDir)
	to := cfg.ToCheckpoint
	if to == 0 {
		latest, ok, err := source.Latest(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no checkpoints in %s", cfg.CheckpointsDir)
		}
		to = latest
	}
	if to < cfg.FromCheckpoint {
		return fmt.Errorf("latest checkpoint %d is before from checkpoint %d", to, cfg.FromCheckpoint)
	}

	for _, path := range []string{cfg.Out, cfg.Errors} {
		if err := truncate(path); err != nil {
			return err
		}
	}
	records := storage.NewJSONLSink(cfg.Out)
	failures := storage.NewJSONLSink(cfg.Errors)
	extractor := indexer.NewExtractor(registry, logger, nil)

	logger.Info("decode start",
		zap.String("checkpoints_dir", cfg.CheckpointsDir),
		zap.Uint64("from", cfg.FromCheckpoint),
		zap.Uint64("to", to),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	var total, missing, decoded, failed int
	for seq := cfg.FromCheckpoint; ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		cp, err := source.Load(ctx, seq)
		switch {
		case errors.Is(err, indexer.ErrCheckpointNotFound):
			missing++
		case err != nil:
			return err
		default:
			total++
			batches, decodeErrors := extractor.ExtractWithFailures(cp)
			if err := records.Commit(ctx, batches); err != nil {
				return err
			}
			if err := failures.PutDecodeErrors(decodeErrors); err != nil {
				return err
			}
			decoded += batches.Len()
			failed += len(decodeErrors)
		}

		if seq == to {
			break
		}
	}

	logger.Info("decode complete",
		zap.Int("checkpoints", total),
		zap.Int("missing", missing),
		zap.Int("decoded", decoded),
		zap.Int("failed", failed),
	)
	return nil
}

// truncate empties path so a rerun does not append to stale output.
func truncate(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reset %s: %w", path, err)
	}
	return nil
}
