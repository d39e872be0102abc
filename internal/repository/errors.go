package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrForeignKey reports a write rejected by a foreign key constraint.
var ErrForeignKey = errors.New("foreign key violation")

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("duplicate row")

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// translate maps constraint violations onto repository sentinels and leaves
// every other error untouched.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrForeignKey, pqErr.Constraint)
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
