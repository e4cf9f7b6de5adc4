package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cetusindexer/internal/model"
)

// Line is one JSONL record. Table names the destination a database
// committer would write it to.
type Line struct {
	Table string `json:"table"`
	Row   any    `json:"row"`
}

// Table names shared with the Postgres schema.
const (
	SwapTable            = "cetus_swap_events"
	AddLiquidityTable    = "cetus_add_liquidity_events"
	RemoveLiquidityTable = "cetus_remove_liquidity_events"
)

// JSONLSink is a dry-run Committer that appends records to a file.
type JSONLSink struct {
	path string
	mu   sync.Mutex
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

// Commit appends every record of batches as one JSON line each. Nothing is
// written for empty batches.
func (s *JSONLSink) Commit(_ context.Context, batches model.Batches) error {
	if batches.Empty() {
		return nil
	}

	lines := make([]Line, 0, batches.Len())
	for _, row := range batches.Swaps {
		lines = append(lines, Line{Table: SwapTable, Row: row})
	}
	for _, row := range batches.AddLiquidity {
		lines = append(lines, Line{Table: AddLiquidityTable, Row: row})
	}
	for _, row := range batches.RemoveLiquidity {
		lines = append(lines, Line{Table: RemoveLiquidityTable, Row: row})
	}
	return s.append(lines)
}

// PutDecodeErrors appends decode failure records.
func (s *JSONLSink) PutDecodeErrors(records []model.DecodeError) error {
	if len(records) == 0 {
		return nil
	}
	lines := make([]Line, 0, len(records))
	for _, rec := range records {
		lines = append(lines, Line{Table: "decode_errors", Row: rec})
	}
	return s.append(lines)
}

func (s *JSONLSink) append(lines []Line) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", line.Table, err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
