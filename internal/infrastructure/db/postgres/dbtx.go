package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isNoMatch reports whether err means no row can match. A malformed UUID key
// is rejected by Postgres with 22P02 and can never address a row.
func isNoMatch(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// execIgnoringBadKey runs a keyed write. A malformed key matches nothing.
func execIgnoringBadKey(ctx context.Context, db DBTX, query string, args ...any) error {
	if _, err := db.ExecContext(ctx, query, args...); err != nil && !isNoMatch(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
