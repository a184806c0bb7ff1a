package dbproc

import (
	"errors"
	"strings"
)

// Code is the service-level error taxonomy that stored-procedure errors
// translate into at the boundary between dbproc and its callers.
type Code string

const (
	CodeForbidden   Code = "forbidden"
	CodeNotFound    Code = "not_found"
	CodeValidation  Code = "validation"
	CodeRateLimited Code = "rate_limited"
	CodeDatabase    Code = "database"
)

// Error wraps a stored-procedure failure with the service-level code it
// mapped to and the original database error text.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is allows errors.Is(err, dbproc.ErrNotFound) style checks against the
// sentinel values below.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrForbidden:
		return e.Code == CodeForbidden
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrRateLimited:
		return e.Code == CodeRateLimited
	}
	return false
}

// Sentinel values for errors.Is comparisons against mapped procedure errors.
var (
	ErrNotFound    = errors.New("dbproc: not found")
	ErrForbidden   = errors.New("dbproc: forbidden")
	ErrValidation  = errors.New("dbproc: validation")
	ErrRateLimited = errors.New("dbproc: rate limited")
)

// mapProcError inspects a stored-procedure error's text for the embedded
// RGP.* code and returns the matching service-level Error. All stored
// procedures enumerated in the external interface raise exceptions whose
// message carries one of these codes as a prefix token; unrecognized errors
// (connection drops, statement timeouts, serialization failures) map to
// CodeDatabase.
func mapProcError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "RGP.401"), strings.Contains(msg, "RGP.403"):
		return &Error{Code: CodeForbidden, Message: msg, cause: err}
	case strings.Contains(msg, "RGP.404"):
		return &Error{Code: CodeNotFound, Message: msg, cause: err}
	case strings.Contains(msg, "RGP.VALIDATION"):
		return &Error{Code: CodeValidation, Message: msg, cause: err}
	case strings.Contains(msg, "RGP.429"):
		return &Error{Code: CodeRateLimited, Message: msg, cause: err}
	default:
		return &Error{Code: CodeDatabase, Message: msg, cause: err}
	}
}
