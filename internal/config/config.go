package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cetusindexer/internal/dex"
)

// Config holds configuration for the run command.
type Config struct {
	CheckpointsDir  string
	FromCheckpoint  uint64
	ToCheckpoint    uint64
	Concurrency     int
	Follow          bool
	PollInterval    time.Duration
	PGDSN           string
	EnsureSchema    bool
	Out             string
	ProgressFile    string
	ProgressName    string
	Registry        dex.RegistryConfig
	MaxRetries      int
	RetryBackoff    time.Duration
	CommitChunkSize int
	MetricsAddr     string
	LogLevel        string
}

// DryRun reports whether records go to the JSONL file instead of Postgres.
func (c Config) DryRun() bool {
	return c.PGDSN == ""
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"checkpoints-dir":   "./checkpoints",
		"concurrency":       100,
		"poll-interval":     time.Second,
		"ensure-schema":     true,
		"out":               "./data/events.jsonl",
		"progress-file":     "./data/progress.json",
		"progress-name":     "cetus",
		"max-retries":       5,
		"retry-backoff":     500 * time.Millisecond,
		"commit-chunk-size": 500,
		"log-level":         "info",
	})
	if err != nil {
		return Config{}, err
	}

	registry, err := registryConfig(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		CheckpointsDir:  v.GetString("checkpoints-dir"),
		FromCheckpoint:  v.GetUint64("from"),
		ToCheckpoint:    v.GetUint64("to"),
		Concurrency:     v.GetInt("concurrency"),
		Follow:          v.GetBool("follow"),
		PollInterval:    v.GetDuration("poll-interval"),
		PGDSN:           v.GetString("pg-dsn"),
		EnsureSchema:    v.GetBool("ensure-schema"),
		Out:             v.GetString("out"),
		ProgressFile:    v.GetString("progress-file"),
		ProgressName:    v.GetString("progress-name"),
		Registry:        registry,
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		CommitChunkSize: v.GetInt("commit-chunk-size"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
	}

	if cfg.CheckpointsDir == "" {
		return Config{}, fmt.Errorf("checkpoints dir is required")
	}
	if cfg.Concurrency <= 0 {
		return Config{}, fmt.Errorf("concurrency must be greater than zero")
	}
	if cfg.ToCheckpoint != 0 && cfg.ToCheckpoint < cfg.FromCheckpoint {
		return Config{}, fmt.Errorf("to checkpoint %d is before from checkpoint %d", cfg.ToCheckpoint, cfg.FromCheckpoint)
	}

	return cfg, nil
}

// legacyEnv maps keys to unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"checkpoints-dir":             "CHECKPOINTS_DIR",
	"progress-file":               "BACKFILL_PROGRESS_FILE_PATH",
	"pg-dsn":                      "DATABASE_URL",
	"swap-event-type":             "SWAP_EVENT_TYPE",
	"add-liquidity-event-type":    "ADD_LIQUIDITY_EVENT_TYPE",
	"remove-liquidity-event-type": "REMOVE_LIQUIDITY_EVENT_TYPE",
}

// newViper builds a viper instance layered as flags > env > config file >
// defaults. A missing ./config.* file is not an error.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "INDEXER_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func registryConfig(v *viper.Viper) (dex.RegistryConfig, error) {
	layout, err := dex.ParseSwapLayout(v.GetString("swap-layout"))
	if err != nil {
		return dex.RegistryConfig{}, err
	}
	return dex.RegistryConfig{
		SwapEventType:            strings.TrimSpace(v.GetString("swap-event-type")),
		AddLiquidityEventType:    strings.TrimSpace(v.GetString("add-liquidity-event-type")),
		RemoveLiquidityEventType: strings.TrimSpace(v.GetString("remove-liquidity-event-type")),
		SwapLayout:               layout,
	}, nil
}
