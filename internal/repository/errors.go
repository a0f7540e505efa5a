package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Business-rule failures raised inside the review submission transaction.
var (
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrCourseNotFound  = errors.New("course not found")
)

// invalidTextRepresentation is raised by postgres when a malformed uuid is compared to a uuid column.
const invalidTextRepresentation = "22P02"

// normalizeNotFound maps malformed identifiers onto sql.ErrNoRows so callers see a plain miss.
func normalizeNotFound(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
		return sql.ErrNoRows
	}
	return err
}
