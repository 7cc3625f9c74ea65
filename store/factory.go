package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stevemurr/content-builder/logger"
)

// Config selects and locates a backend.
type Config struct {
	Backend string
	DataDir string
	DSN     string
}

// New creates a Backend based on cfg.Backend.
//
// Supported backends:
//
//	"json"     - JSON array files in DataDir (default)
//	"postgres" - PostgreSQL at DSN
//	"sqlite"   - SQLite file at DSN, or DataDir/content.db
//	"memory"   - in-memory SQLite (ephemeral, for testing)
func New(cfg Config, log *logger.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "json", "file", "":
		b, err := NewFileBackend(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a connection string (DATABASE_URL)")
		}
		b, err := OpenPostgres(cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		path := cfg.DSN
		if path == "" {
			path = filepath.Join(cfg.DataDir, "content.db")
		}
		b, err := OpenSQLite(path, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory":
		b, err := OpenMemory(log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, postgres, sqlite, memory)", cfg.Backend)
	}
}
