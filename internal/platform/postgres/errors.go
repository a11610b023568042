package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trellisdata/trellis/internal/store"
)

// PostgreSQL error codes this package cares about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates driver-level errors into store sentinels so callers
// can branch with errors.Is instead of sniffing SQLSTATE codes.
func mapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w: %s", operation, store.ErrDuplicate, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", operation, store.ErrNotFound, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
