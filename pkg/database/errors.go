package database

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/gymstack/gymstack-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation
	case "23505":
		return errors.Conflict(formatUniqueMessage(pqErr))

	// Foreign key violation
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Check constraint violation
	case "23514":
		return errors.UnprocessableEntity("data validation failed: " + pqErr.Constraint)

	// Too many connections / cannot connect now
	case "53300", "57P03":
		return errors.Transient("database connection limit reached")

	// Statement cancelled (request deadline hit mid-query)
	case "57014":
		return errors.Transient("query cancelled")

	default:
		return nil
	}
}

// Translate maps a database error to the application taxonomy, falling back
// to the provided not-found resource name for sql.ErrNoRows.
func Translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return errors.NotFound(resource)
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// formatUniqueMessage creates a user-friendly message for unique constraint violations.
func formatUniqueMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email"):
		return "a record with this email already exists"
	case strings.Contains(constraint, "salary") && strings.Contains(constraint, "period"):
		return "a salary for this staff member and period already exists"
	case strings.Contains(constraint, "challenge_participants"):
		return "user has already joined this challenge"
	case strings.Contains(constraint, "schema_name"):
		return "a gym with this schema already exists"
	default:
		return "a record with these values already exists"
	}
}
