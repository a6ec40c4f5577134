package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and locates a SQL store.
type Config struct {
	// Driver is detected from URL when empty.
	Driver Driver
	// URL is a postgres URL, or a sqlite:// / file: URL or plain .db path.
	URL string
	// SQLitePath overrides the path taken from URL.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// Register makes a driver available to NewConnection. Driver packages call it from init.
func Register(driver Driver, open Opener) {
	openers[driver] = open
}

// NewConnection opens the store described by cfg.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	if cfg.Driver == "" {
		cfg.Driver = DetectDriver(cfg.URL)
	}
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("database driver %q not registered", cfg.Driver)
	}
	if cfg.Driver == DriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is used when a SQLite store is requested without a path.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".taskboard", "tasks.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
