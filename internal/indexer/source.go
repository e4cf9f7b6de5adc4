package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"cetusindexer/internal/model"
)

// ErrCheckpointNotFound is returned when the source has no checkpoint with
// the requested sequence number.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

const digestLength = 32

// Source delivers assembled checkpoints by sequence number.
type Source interface {
	Load(ctx context.Context, seq uint64) (*model.Checkpoint, error)
	// Latest reports the highest available sequence number, if any.
	Latest(ctx context.Context) (uint64, bool, error)
}

// DirSource reads checkpoints stored as <sequence_number>.json files.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) path(seq uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(seq, 10)+".json")
}

func (s *DirSource) Load(ctx context.Context, seq uint64) (*model.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(seq))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %d", ErrCheckpointNotFound, seq)
		}
		return nil, fmt.Errorf("read checkpoint %d: %w", seq, err)
	}

	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint %d: %w", seq, err)
	}
	if cp.SequenceNumber != seq {
		return nil, fmt.Errorf("checkpoint file %d holds sequence number %d", seq, cp.SequenceNumber)
	}
	for i, tx := range cp.Transactions {
		if err := validateDigest(tx.Digest); err != nil {
			return nil, fmt.Errorf("checkpoint %d tx %d: %w", seq, i, err)
		}
	}

	return &cp, nil
}

func (s *DirSource) Latest(ctx context.Context) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, false, fmt.Errorf("list checkpoints: %w", err)
	}

	var (
		latest uint64
		found  bool
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok {
			continue
		}
		seq, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			continue
		}
		if !found || seq > latest {
			latest, found = seq, true
		}
	}
	return latest, found, nil
}

func validateDigest(digest string) error {
	raw, err := base58.Decode(digest)
	if err != nil {
		return fmt.Errorf("invalid digest %q: %w", digest, err)
	}
	if len(raw) != digestLength {
		return fmt.Errorf("invalid digest %q: %d bytes", digest, len(raw))
	}
	return nil
}
