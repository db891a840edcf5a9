// Package apierr carries an HTTP status and a stable error code alongside an error.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ashureev/skillpath/internal/domain"
)

// Error codes.
const (
	CodeSessionNotFound = "session_not_found"
	CodeUnknownDomain   = "unknown_domain"
	CodeBadRequest      = "bad_request"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
)

// Error is an error with transport metadata.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error.
func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest wraps a client input error.
func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, errors.New(msg))
}

// From maps err to an Error. Known domain sentinels become client errors;
// anything else is an internal error whose message is not exposed.
func From(err error) *Error {
	var apiErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, domain.ErrSessionNotFound):
		return New(http.StatusNotFound, CodeSessionNotFound, domain.ErrSessionNotFound)
	case errors.Is(err, domain.ErrUnknownDomain):
		return New(http.StatusNotFound, CodeUnknownDomain, err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, err)
	}
}

// Public is the message safe to show to a client.
func (e *Error) Public() string {
	if e.Status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return e.Error()
}
