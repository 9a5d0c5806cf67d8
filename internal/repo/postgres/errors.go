package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storefront/catalogapi/internal/store"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	notNullViolationCode    = "23502"
	checkViolationCode      = "23514"
)

// MapError converts driver errors into storage-agnostic sentinels. notFound is what
// pgx.ErrNoRows becomes for the calling repository.
func MapError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w (%s): %v", store.ErrDuplicate, pgErr.ConstraintName, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w (%s): %v", store.ErrForeignKey, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w (%s): %v", store.ErrMissingField, pgErr.ColumnName, err)
		case checkViolationCode:
			return fmt.Errorf("%w (%s): %v", store.ErrConstraint, pgErr.ConstraintName, err)
		}
	}

	return err
}
