package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"cetusindexer/internal/dex"
)

func clearDSN(t *testing.T) {
	t.Helper()
	t.Setenv("INDEXER_PG_DSN", "")
	t.Setenv("DATABASE_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	clearDSN(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Concurrency != 100 || cfg.CheckpointsDir != "./checkpoints" || cfg.ProgressName != "cetus" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || cfg.MaxRetries != 5 {
		t.Fatalf("unexpected retry defaults: %+v", cfg)
	}
	if !cfg.DryRun() {
		t.Fatalf("expected dry run without pg dsn")
	}
	if cfg.Registry != (dex.RegistryConfig{SwapLayout: dex.LayoutCLMMSwap}) {
		t.Fatalf("unexpected registry config: %+v", cfg.Registry)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	content := "concurrency: 8\nfrom: 10\npg-dsn: postgres://file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("INDEXER_CONCURRENCY", "16")
	t.Setenv("INDEXER_POLL_INTERVAL", "3s")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Uint64("from", 0, "")
	flags.Int("concurrency", 100, "")
	if err := flags.Parse([]string{"--from=20"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FromCheckpoint != 20 {
		t.Fatalf("flag should win, got from=%d", cfg.FromCheckpoint)
	}
	if cfg.Concurrency != 16 {
		t.Fatalf("env should beat config file, got concurrency=%d", cfg.Concurrency)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval)
	}
	if cfg.PGDSN != "postgres://file" || cfg.DryRun() {
		t.Fatalf("pg dsn = %q", cfg.PGDSN)
	}
}

func TestLoadEventTypeOverrides(t *testing.T) {
	t.Setenv("SWAP_EVENT_TYPE", "0xabc::amm::Swapped")
	t.Setenv("INDEXER_SWAP_LAYOUT", "minimal")
	t.Setenv("DATABASE_URL", "postgres://legacy")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Registry.SwapEventType != "0xabc::amm::Swapped" || cfg.Registry.SwapLayout != dex.LayoutMinimalSwap {
		t.Fatalf("unexpected registry config: %+v", cfg.Registry)
	}
	if cfg.Registry.AddLiquidityEventType != "" {
		t.Fatalf("unset override should stay empty")
	}
	if cfg.PGDSN != "postgres://legacy" {
		t.Fatalf("legacy DATABASE_URL not honoured: %q", cfg.PGDSN)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("INDEXER_SWAP_LAYOUT", "v2")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected layout error")
	}

	t.Setenv("INDEXER_SWAP_LAYOUT", "")
	t.Setenv("INDEXER_CONCURRENCY", "0")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected concurrency error")
	}

	t.Setenv("INDEXER_CONCURRENCY", "4")
	t.Setenv("INDEXER_FROM", "10")
	t.Setenv("INDEXER_TO", "5")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected range error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected missing config file error")
	}
}

func TestLoadDecodeAndServe(t *testing.T) {
	clearDSN(t)
	dcfg, err := LoadDecode("", nil)
	if err != nil {
		t.Fatalf("load decode: %v", err)
	}
	if dcfg.Errors != "./data/decode_errors.jsonl" || dcfg.CheckpointsDir != "./checkpoints" {
		t.Fatalf("unexpected decode defaults: %+v", dcfg)
	}

	if _, err := LoadServe("", nil); err == nil {
		t.Fatalf("expected pg dsn error")
	}
	t.Setenv("INDEXER_PG_DSN", "postgres://x")
	scfg, err := LoadServe("", nil)
	if err != nil {
		t.Fatalf("load serve: %v", err)
	}
	if scfg.Addr != "0.0.0.0:8080" || scfg.PGDSN != "postgres://x" {
		t.Fatalf("unexpected serve config: %+v", scfg)
	}
}
