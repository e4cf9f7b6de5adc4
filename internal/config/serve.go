package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the read API.
type ServeConfig struct {
	Addr     string
	PGDSN    string
	LogLevel string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"addr":      "0.0.0.0:8080",
		"log-level": "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Addr:     v.GetString("addr"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return ServeConfig{}, fmt.Errorf("pg dsn is required")
	}
	return cfg, nil
}
