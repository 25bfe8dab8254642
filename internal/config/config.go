// Package config loads server configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// SQLitePath is the path to the SQLite database file. When empty,
	// documents are kept in memory and lost on restart.
	SQLitePath string `env:"SQLITE_PATH"`

	// SnapshotThreshold is the number of logged operations after which
	// a session persists a snapshot. Zero disables snapshotting.
	SnapshotThreshold int `env:"SNAPSHOT_THRESHOLD" envDefault:"100"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.SnapshotThreshold < 0 {
		return Config{}, fmt.Errorf("snapshot threshold must not be negative, got %d", cfg.SnapshotThreshold)
	}

	return cfg, nil
}
