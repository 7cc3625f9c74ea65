package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
)

// OpenPostgres connects to PostgreSQL and migrates the schema.
func OpenPostgres(dsn string, log *logger.Logger) (*GormBackend, error) {
	return openGorm("postgres", postgres.Open(dsn), log, 0)
}

// translatePostgres maps PostgreSQL SQLSTATEs and connect failures onto the
// error taxonomy. Constraint names never reach the caller.
func translatePostgres(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.DuplicateKey(entity)
		case "23503":
			return apperr.Integrity(entity, "parent", "")
		case "08000", "08003", "08006", "57P01":
			return apperr.Unavailable(err)
		}
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperr.Unavailable(err)
	}
	return nil
}
