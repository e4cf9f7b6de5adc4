package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"cetusindexer/internal/dex"
	"cetusindexer/internal/model"
)

func writeCheckpoint(t *testing.T, dir string, cp model.Checkpoint) {
	t.Helper()
	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatalf("marshal checkpoint: %v", err)
	}
	path := filepath.Join(dir, strconv.FormatUint(cp.SequenceNumber, 10)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}
}

func TestDirSourceLoad(t *testing.T) {
	dir := t.TempDir()
	want := model.Checkpoint{
		SequenceNumber: 7,
		TimestampMs:    1700000000000,
		Transactions: []model.Transaction{{
			Digest: digest(9),
			Events: []model.RawEvent{rawEvent(dex.DefaultSwapEventType, swapPayload(100, 95))},
		}},
	}
	writeCheckpoint(t, dir, want)

	src := NewDirSource(dir)
	got, err := src.Load(context.Background(), 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SequenceNumber != 7 || len(got.Transactions) != 1 {
		t.Fatalf("unexpected checkpoint: %+v", got)
	}
	if string(got.Transactions[0].Events[0].Contents) != string(want.Transactions[0].Events[0].Contents) {
		t.Fatalf("event contents changed in transit")
	}
}

func TestDirSourceNotFound(t *testing.T) {
	src := NewDirSource(t.TempDir())
	if _, err := src.Load(context.Background(), 1); !errors.Is(err, ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestDirSourceRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir)

	writeCheckpoint(t, dir, model.Checkpoint{SequenceNumber: 3, Transactions: []model.Transaction{{Digest: "0OIl"}}})
	if _, err := src.Load(context.Background(), 3); err == nil {
		t.Fatalf("expected invalid digest error")
	}

	writeCheckpoint(t, dir, model.Checkpoint{SequenceNumber: 4, Transactions: []model.Transaction{{Digest: "3yZe7d"}}})
	if _, err := src.Load(context.Background(), 4); err == nil {
		t.Fatalf("expected short digest error")
	}

	if err := os.WriteFile(filepath.Join(dir, "5.json"), []byte(`{"sequence_number":6}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := src.Load(context.Background(), 5); err == nil {
		t.Fatalf("expected sequence mismatch error")
	}

	if err := os.WriteFile(filepath.Join(dir, "8.json"), []byte(`{`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := src.Load(context.Background(), 8); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDirSourceLatest(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir)

	if _, ok, err := src.Latest(context.Background()); err != nil || ok {
		t.Fatalf("empty dir: ok=%v err=%v", ok, err)
	}

	for _, seq := range []uint64{2, 10, 9} {
		writeCheckpoint(t, dir, model.Checkpoint{SequenceNumber: seq})
	}
	for _, name := range []string{"11.json.tmp", "notes.json", "12.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "99.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	latest, ok, err := src.Latest(context.Background())
	if err != nil || !ok || latest != 10 {
		t.Fatalf("latest = %d ok=%v err=%v", latest, ok, err)
	}
}
