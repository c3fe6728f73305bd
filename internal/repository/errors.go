package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound the row does not exist (or a referenced row vanished).
	ErrNotFound = errors.New("not found")
	// ErrDuplicate a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate")
	// ErrConstraint a CHECK constraint rejected the write.
	ErrConstraint = errors.New("constraint violation")
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// wrap prefixes err with op and maps driver errors onto the package sentinels.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrNotFound, pqErr.Constraint)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrConstraint, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
