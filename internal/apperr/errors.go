// Package apperr defines the error kinds shared by the store, services and
// HTTP layers, and how each kind is presented to a client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by every not-found kind below.
	ErrNotFound = errors.New("not found")

	ErrNotFoundUser    = fmt.Errorf("user %w", ErrNotFound)
	ErrNotFoundSession = fmt.Errorf("session %w", ErrNotFound)
	ErrNotFoundData    = fmt.Errorf("data %w", ErrNotFound)

	ErrAlreadyExists      = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrCannotIssueSession = errors.New("cannot issue session")
	ErrInternal           = errors.New("internal server error")
)

// ValidationError carries a client-facing description of invalid input.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// Validation returns a *ValidationError with a formatted detail.
func Validation(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// Status maps an error to the HTTP status code reported to the client.
// Anything that is not a known kind is an internal error.
func Status(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		// Kept as 302 Found for compatibility with existing clients.
		return http.StatusFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the only text about err that may cross the HTTP boundary.
func Message(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Detail
	case errors.Is(err, ErrBadRequest):
		return "Nothing to update!"
	case errors.Is(err, ErrAlreadyExists):
		return "User already registered!"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized!"
	case errors.Is(err, ErrNotFoundUser):
		return "User not found!"
	case errors.Is(err, ErrNotFoundSession):
		return "Session not found!"
	case errors.Is(err, ErrNotFound):
		return "Data not found!"
	default:
		return "Internal Server Error!"
	}
}
