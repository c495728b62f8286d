// Package pgerr maps PostgreSQL driver errors onto the sentinel errors in
// internal/common.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
)

const uniqueViolation = "23505"

// Wrap translates err into a repository error. sql.ErrNoRows becomes
// common.ErrNotFound, unique violations become common.ErrConflict and
// everything else is wrapped as a db error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

// MustAffect returns common.ErrNotFound when an update or delete touched no rows.
func MustAffect(res sql.Result, err error) error {
	if err != nil {
		return Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Wrap(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
