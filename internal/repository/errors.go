package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// UniqueViolation reports whether err is a Postgres unique-constraint
// violation and returns the violated constraint name.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}

// InvalidTextRepresentation reports whether err is a Postgres 22P02 error,
// raised when a malformed value is bound to a typed column such as uuid.
func InvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

// requireRow converts a zero-row update/delete into sql.ErrNoRows so callers
// can map it to a not-found error.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
