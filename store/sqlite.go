package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
)

// OpenSQLite opens (creating if needed) a SQLite database file with foreign
// keys enforced and WAL journaling.
func OpenSQLite(dbPath string, log *logger.Logger) (*GormBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("create db dir: %w", err))
	}
	dsn := dbPath + "?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL"
	return openGorm("sqlite", sqlite.Open(dsn), log, 1)
}

// OpenMemory opens a private in-memory SQLite database. It lives as long as
// the single pooled connection, so the pool is pinned to one connection.
func OpenMemory(log *logger.Logger) (*GormBackend, error) {
	return openGorm("memory", sqlite.Open(":memory:?_foreign_keys=1"), log, 1)
}

// translateSQLite maps SQLite constraint and open failures onto the error
// taxonomy. It returns nil when err is not a SQLite error it recognises.
func translateSQLite(entity string, err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch {
	case se.ExtendedCode == sqlite3.ErrConstraintUnique,
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return apperr.DuplicateKey(entity)
	case se.ExtendedCode == sqlite3.ErrConstraintForeignKey:
		return apperr.Integrity(entity, "parent", "")
	case se.Code == sqlite3.ErrCantOpen, se.Code == sqlite3.ErrNotADB:
		return apperr.Unavailable(err)
	}
	return nil
}
