package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"cetusindexer/internal/metrics"
	"cetusindexer/internal/storage"
)

const defaultLogEvery = 1000

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromCheckpoint uint64
	// ToCheckpoint is inclusive; zero means no upper bound.
	ToCheckpoint uint64
	Concurrency  int
	Follow       bool
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogEvery     uint64
}

// Runner drives checkpoints from a Source through the Extractor into a
// Committer, recording progress after every fully committed window.
type Runner struct {
	cfg       RunConfig
	source    Source
	extractor *Extractor
	committer storage.Committer
	progress  ProgressStore
	logger    *zap.Logger
	metrics   *metrics.Metrics
	processed uint64
}

// NewRunner builds a Runner with its dependencies. progress and m may be nil.
func NewRunner(cfg RunConfig, source Source, extractor *Extractor, committer storage.Committer, progress ProgressStore, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LogEvery == 0 {
		cfg.LogEvery = defaultLogEvery
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Runner{
		cfg:       cfg,
		source:    source,
		extractor: extractor,
		committer: committer,
		progress:  progress,
		logger:    logger,
		metrics:   m,
	}
}

// Run executes the indexing loop until the configured end is reached, the
// source runs dry (unless following), ctx is cancelled, or a checkpoint
// fails after all retries.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("checkpoint source is nil")
	}
	if r.extractor == nil {
		return fmt.Errorf("extractor is nil")
	}
	if r.committer == nil {
		return fmt.Errorf("committer is nil")
	}
	if r.cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than zero")
	}
	if r.cfg.ToCheckpoint != 0 && r.cfg.ToCheckpoint < r.cfg.FromCheckpoint {
		return fmt.Errorf("to checkpoint %d is before from checkpoint %d", r.cfg.ToCheckpoint, r.cfg.FromCheckpoint)
	}

	next := r.cfg.FromCheckpoint
	if r.progress != nil {
		last, ok, err := r.progress.Load(ctx)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if ok && last >= next {
			next = last + 1
			r.logger.Info("resume from progress", zap.Uint64("last_committed", last), zap.Uint64("from", next))
		}
	}

	pool := pond.NewPool(r.cfg.Concurrency)
	defer pool.StopAndWait()

	for {
		if r.cfg.ToCheckpoint != 0 && next > r.cfg.ToCheckpoint {
			r.logger.Info("reached end checkpoint", zap.Uint64("to", r.cfg.ToCheckpoint))
			return nil
		}

		latest, ok, err := r.source.Latest(ctx)
		if err != nil {
			return fmt.Errorf("latest checkpoint: %w", err)
		}
		if ok && latest >= next {
			to := latest
			if r.cfg.ToCheckpoint != 0 && r.cfg.ToCheckpoint < to {
				to = r.cfg.ToCheckpoint
			}
			committed, err := r.runRange(ctx, pool, next, to)
			if err != nil {
				return err
			}
			next = committed + 1
			continue
		}

		if !r.cfg.Follow {
			r.logger.Info("nothing to sync", zap.Uint64("next", next))
			return nil
		}

		timer := time.NewTimer(r.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runRange processes [from, to] window by window and returns the last
// committed sequence number.
func (r *Runner) runRange(ctx context.Context, pool pond.Pool, from, to uint64) (uint64, error) {
	windows, err := SplitRange(from, to, uint64(r.cfg.Concurrency))
	if err != nil {
		return 0, err
	}

	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := r.runWindow(ctx, pool, window); err != nil {
			return 0, err
		}

		if r.progress != nil {
			if err := r.progress.Save(ctx, window.To); err != nil {
				return 0, fmt.Errorf("save progress: %w", err)
			}
		}
		r.metrics.Watermark(window.To)

		before := r.processed
		r.processed += window.Len()
		if r.processed/r.cfg.LogEvery != before/r.cfg.LogEvery {
			r.logger.Info("indexing progress",
				zap.Uint64("checkpoint", window.To),
				zap.Uint64("processed", r.processed),
			)
		}
	}

	return to, nil
}

// runWindow processes every checkpoint of the window concurrently. The
// window fails if any of its checkpoints fails.
func (r *Runner) runWindow(ctx context.Context, pool pond.Pool, window Window) error {
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	errs := make([]error, window.To-window.From+1)
	for seq := window.From; ; seq++ {
		seq := seq // per-iteration copy; go.mod targets go1.21 loop semantics
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[seq-window.From] = err
				return
			}
			errs[seq-window.From] = r.processWithRetry(groupCtx, seq)
		})
		if seq == window.To {
			break
		}
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("window %d-%d: %w", window.From, window.To, err)
	}
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("checkpoint %d: %w", window.From+uint64(i), err)
		}
	}
	return nil
}

func (r *Runner) processWithRetry(ctx context.Context, seq uint64) error {
	onFailure := func(attempt int, err error) {
		r.logger.Warn("checkpoint attempt failed",
			zap.Uint64("checkpoint", seq),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, onFailure, func(ctx context.Context) error {
		return r.process(ctx, seq)
	})
}

// process loads, extracts and commits one checkpoint. Extraction is
// deterministic, so a retry recommits identical rows.
func (r *Runner) process(ctx context.Context, seq uint64) error {
	cp, err := r.source.Load(ctx, seq)
	if err != nil {
		return err
	}

	batches := r.extractor.Extract(cp)
	if err := r.committer.Commit(ctx, batches); err != nil {
		return err
	}

	r.metrics.CheckpointDone()
	if !batches.Empty() {
		r.logger.Debug("checkpoint committed",
			zap.Uint64("checkpoint", seq),
			zap.Int("swaps", len(batches.Swaps)),
			zap.Int("add_liquidity", len(batches.AddLiquidity)),
			zap.Int("remove_liquidity", len(batches.RemoveLiquidity)),
		)
	}
	return nil
}
