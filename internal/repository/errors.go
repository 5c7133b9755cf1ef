package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a PostgreSQL unique constraint
// violation and returns the offending constraint name.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
