package apperr

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes we classify at the repository boundary.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Services use it to attach an entity-specific message.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign-key
// violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation
}

// FromPostgres converts a raw database error into a classified one.
// Constraint violations become Conflict/Invalid, everything else Storage.
func FromPostgres(err error, storageMsg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return Conflict("duplicate field value entered")
		case pgForeignKeyViolation:
			return Invalid("referenced resource does not exist")
		case pgCheckViolation:
			return Invalid("data violates database constraints")
		}
	}
	return Storage(storageMsg, err)
}
