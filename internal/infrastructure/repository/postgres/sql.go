package postgres

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

const pgUniqueViolation = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// wrapWriteErr wraps a write failure, marking unique violations as conflicts.
func wrapWriteErr(err error, msg string) error {
	wrapped := errors.Wrap(err, msg)
	if isUniqueViolation(err) {
		return errors.Mark(wrapped, usecase.ErrConflict)
	}
	return wrapped
}

func anyStrings(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
