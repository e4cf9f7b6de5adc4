package storage

import (
	"context"

	"cetusindexer/internal/model"
)

// Committer persists the batches extracted from one checkpoint. Commit must
// be atomic across all three batches and idempotent under replays.
type Committer interface {
	Commit(ctx context.Context, batches model.Batches) error
}
