// Package config implements the engine's configuration: a JSON-tagged
// struct tree, a DefaultConfig, and a LoadConfig/LoadConfigOrDefault
// pair, following the same triad this teacher uses for its own config
// (pkg/config/config.go), trimmed down to this engine's actual
// concerns — no server/pool/cache/MVCC/session sections, since this is
// an embedded engine, not a MySQL-protocol server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the engine's top-level configuration.
type Config struct {
	Snapshot  SnapshotConfig  `json:"snapshot"`
	Lock      LockConfig      `json:"lock"`
	Log       LogConfig       `json:"log"`
	Operation OperationConfig `json:"operation"`
}

// SnapshotConfig controls where and how the catalog is persisted.
type SnapshotConfig struct {
	Path string `json:"path"`
}

// LockConfig holds a retry/backoff policy for callers of the non-blocking
// Lock Manager. No package in this module reads it: an implicit
// transaction whose lock is refused rolls back and returns
// ErrLockNotAcquired without retrying.
type LockConfig struct {
	MaxRetries int           `json:"max_retries"`
	Backoff    time.Duration `json:"backoff"`
}

// LogConfig names a logger verbosity level. No package in this module
// reads it: pkg/snapshot and cmd/hashbase log through the standard
// library's log package unconditionally.
type LogConfig struct {
	Level string `json:"level"` // "debug", "info", "warn", "error"
}

// OperationConfig bounds the per-transaction operation log (spec §9).
type OperationConfig struct {
	LogCap int `json:"log_cap"`
}

// DefaultConfig returns the engine's baked-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path: "hashbase.json",
		},
		Lock: LockConfig{
			MaxRetries: 5,
			Backoff:    50 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		Operation: OperationConfig{
			LogCap: 1000,
		},
	}
}

// LoadConfig loads configPath over a DefaultConfig, so a file only
// needs to specify the fields it wants to override. An empty path
// returns DefaultConfig() unchanged.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault tries a handful of conventional locations before
// falling back to DefaultConfig(), matching the teacher's
// LoadConfigOrDefault helper.
func LoadConfigOrDefault() *Config {
	for _, path := range []string{"hashbase.json", "./config/hashbase.json", "/etc/hashbase/config.json"} {
		if _, err := os.Stat(path); err == nil {
			if cfg, err := LoadConfig(path); err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

func validate(cfg *Config) error {
	if cfg.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must not be empty")
	}
	if cfg.Lock.MaxRetries < 0 {
		return fmt.Errorf("lock.max_retries must not be negative")
	}
	if cfg.Operation.LogCap < 0 {
		return fmt.Errorf("operation.log_cap must not be negative")
	}
	return nil
}
