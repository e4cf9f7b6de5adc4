package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"cetusindexer/internal/dex"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	CheckpointsDir string
	FromCheckpoint uint64
	ToCheckpoint   uint64
	Out            string
	Errors         string
	Registry       dex.RegistryConfig
	LogLevel       string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"checkpoints-dir": "./checkpoints",
		"out":             "./data/events.jsonl",
		"errors":          "./data/decode_errors.jsonl",
		"log-level":       "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	registry, err := registryConfig(v)
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		CheckpointsDir: v.GetString("checkpoints-dir"),
		FromCheckpoint: v.GetUint64("from"),
		ToCheckpoint:   v.GetUint64("to"),
		Out:            v.GetString("out"),
		Errors:         v.GetString("errors"),
		Registry:       registry,
		LogLevel:       v.GetString("log-level"),
	}
	if cfg.ToCheckpoint != 0 && cfg.ToCheckpoint < cfg.FromCheckpoint {
		return DecodeConfig{}, fmt.Errorf("to checkpoint %d is before from checkpoint %d", cfg.ToCheckpoint, cfg.FromCheckpoint)
	}

	return cfg, nil
}
