package apperrors

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("...: %w", Err...)
// and classify with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
)

// Status maps an error to the HTTP status the handlers respond with.
// Anything unclassified is an internal error.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err is safe to echo back to the caller.
func IsClientError(err error) bool {
	s := Status(err)
	return s >= 400 && s < 500
}
