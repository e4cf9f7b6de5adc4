package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// LoadState returns the last committed checkpoint recorded under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var last int64
	row := s.pool.QueryRow(ctx, `SELECT last_checkpoint FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("load state %s: %w", name, err)
	}
	return uint64(last), true, nil
}

// SaveState upserts the last committed checkpoint for name.
func (s *Store) SaveState(ctx context.Context, name string, checkpoint uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	if checkpoint > math.MaxInt64 {
		return fmt.Errorf("checkpoint %d exceeds bigint range", checkpoint)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_checkpoint, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_checkpoint = EXCLUDED.last_checkpoint, updated_at = now()
	`, name, int64(checkpoint))
	if err != nil {
		return fmt.Errorf("save state %s: %w", name, err)
	}
	return nil
}

// StateProgress adapts one indexer_state row to the runner's progress store.
type StateProgress struct {
	store *Store
	name  string
}

func (s *Store) Progress(name string) *StateProgress {
	return &StateProgress{store: s, name: name}
}

func (p *StateProgress) Load(ctx context.Context) (uint64, bool, error) {
	return p.store.LoadState(ctx, p.name)
}

func (p *StateProgress) Save(ctx context.Context, lastCheckpoint uint64) error {
	return p.store.SaveState(ctx, p.name, lastCheckpoint)
}
