package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// translate wraps unique-constraint violations in ErrDuplicate and returns
// every other error unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		return pgerr.Code == pgerrcode.UniqueViolation
	}
	// sqlite builds without an error translator still report the constraint.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
