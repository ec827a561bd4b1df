// Package apperr defines the error taxonomy shared by the core packages.
// Callers wrap these sentinels with context via fmt.Errorf("%w: ...") and
// the HTTP layer maps them to status codes with HTTPStatus.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation conflicts with current state,
	// e.g. promoting an already-active template.
	ErrConflict = errors.New("conflict")

	// ErrDuplicateVersion means a template version string already exists
	// for the framework.
	ErrDuplicateVersion = errors.New("duplicate version")

	// ErrInvalidRange means a date edit would produce end < start or a
	// duration below the minimum.
	ErrInvalidRange = errors.New("invalid range")

	// ErrCycle means a dependency edge would create a cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrValidation means the input is malformed: a score outside the
	// rubric range, a required question left unanswered on completion.
	ErrValidation = errors.New("validation failed")
)

// HTTPStatus maps a core error to the HTTP status the API layer should
// return. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCycle), errors.Is(err, ErrDuplicateVersion):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
