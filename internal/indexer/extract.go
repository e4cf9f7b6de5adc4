package indexer

import (
	"go.uber.org/zap"

	"cetusindexer/internal/dex"
	"cetusindexer/internal/metrics"
	"cetusindexer/internal/model"
)

// Extractor turns a checkpoint into per-kind record batches. It holds no
// mutable state and may be shared by concurrent workers.
type Extractor struct {
	registry *dex.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewExtractor(registry *dex.Registry, logger *zap.Logger, m *metrics.Metrics) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{registry: registry, logger: logger, metrics: m}
}

// Extract returns the decoded records of cp in encounter order. Events that
// match a registered type but fail to decode are logged and dropped.
func (e *Extractor) Extract(cp *model.Checkpoint) model.Batches {
	batches, _ := e.ExtractWithFailures(cp)
	return batches
}

// ExtractWithFailures is Extract that also reports every dropped event.
func (e *Extractor) ExtractWithFailures(cp *model.Checkpoint) (model.Batches, []model.DecodeError) {
	var (
		batches  model.Batches
		failures []model.DecodeError
	)
	if cp == nil || e.registry == nil {
		return batches, nil
	}

	for _, tx := range cp.Transactions {
		if len(tx.Events) == 0 {
			continue
		}
		ordinals := make(map[dex.EventKind]int, len(dex.Kinds))
		for idx, event := range tx.Events {
			desc, ok := e.registry.Resolve(event.Type)
			if !ok {
				continue
			}

			rec, err := dex.Decode(desc, event.Contents)
			if err != nil {
				e.logger.Warn("drop undecodable event",
					zap.Uint64("checkpoint", cp.SequenceNumber),
					zap.String("tx_digest", tx.Digest),
					zap.Int("event_index", idx),
					zap.Stringer("kind", desc.Kind),
					zap.Error(err),
				)
				e.metrics.DecodeFailed(desc.Kind.Tag())
				failures = append(failures, model.DecodeError{
					Checkpoint: cp.SequenceNumber,
					TxDigest:   tx.Digest,
					EventIndex: idx,
					PackageID:  event.PackageID,
					Type:       event.Type,
					Kind:       desc.Kind.Tag(),
					Error:      err.Error(),
				})
				continue
			}

			id := Identity(event.PackageID, tx.Digest, rec.Kind, ordinals[rec.Kind])
			ordinals[rec.Kind]++

			switch rec.Kind {
			case dex.KindSwap:
				rec.Swap.ID = id
				batches.Swaps = append(batches.Swaps, *rec.Swap)
			case dex.KindAddLiquidity:
				rec.Liquidity.ID = id
				batches.AddLiquidity = append(batches.AddLiquidity, *rec.Liquidity)
			case dex.KindRemoveLiquidity:
				rec.Liquidity.ID = id
				batches.RemoveLiquidity = append(batches.RemoveLiquidity, *rec.Liquidity)
			}
			e.metrics.Decoded(rec.Kind.Tag())
		}
	}

	return batches, failures
}
