package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ProgressStore records the highest checkpoint whose records are durably
// committed, so a restarted run resumes after it.
type ProgressStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, lastCheckpoint uint64) error
}

// Progress is the on-disk form used by FileProgressStore.
type Progress struct {
	LastCheckpoint uint64 `json:"last_checkpoint"`
	UpdatedAt      string `json:"updated_at"`
}

// FileProgressStore persists progress as a small JSON file, replaced
// atomically on every save.
type FileProgressStore struct {
	path string
}

func NewFileProgressStore(path string) *FileProgressStore {
	return &FileProgressStore{path: path}
}

func (s *FileProgressStore) Load(_ context.Context) (uint64, bool, error) {
	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat progress: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("progress path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false, fmt.Errorf("read progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, false, fmt.Errorf("parse progress: %w", err)
	}
	return p.LastCheckpoint, true, nil
}

func (s *FileProgressStore) Save(_ context.Context, lastCheckpoint uint64) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create progress dir: %w", err)
		}
	}

	data, err := json.Marshal(Progress{
		LastCheckpoint: lastCheckpoint,
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write progress tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename progress: %w", err)
	}
	return nil
}
