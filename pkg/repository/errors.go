package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes inspected by MapError.
const (
	UniqueViolation = "23505"
	CheckViolation  = "23514"
)

// Code returns the PostgreSQL error code carried by err, or "".
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError converts driver errors into domain errors: sql.ErrNoRows becomes
// notFound and a unique violation becomes duplicate. Anything else is
// returned as is.
func MapError(err, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case Code(err) == UniqueViolation:
		return duplicate
	}
	return err
}
