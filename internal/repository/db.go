// Package repository holds the PostgreSQL-backed stores for users and APOD entries.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ASTROTRACKER_BACK-END/internal/errs"
)

const (
	dateLayout          = "2006-01-02"
	pgUniqueViolationID = "23505"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx used by the repositories
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translate maps driver errors onto the errs taxonomy
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationID {
		return errs.ErrAlreadyExists
	}
	return err
}
