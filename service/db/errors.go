package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage errors. The signal table is append-only.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a record fails validation before insert.
	ErrInvalidInput = errors.New("invalid input")
)

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isUndefinedTableError reports whether err is Postgres' 42P01, which means
// migrations have not been applied.
func isUndefinedTableError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
