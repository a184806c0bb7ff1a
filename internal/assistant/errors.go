package assistant

import "net/http"

// Code is a stable, externally visible error code in the RGP.* taxonomy
// used throughout the HTTP surface.
type Code string

const (
	CodeInvalidStop      Code = "RGP.V1.INVALID_STOP"
	CodeProviderNotFound Code = "RGP.V1.PROVIDER_NOT_FOUND"
	CodeModelNotFound    Code = "RGP.V1.MODEL_NOT_FOUND"
	CodeValidation       Code = "RGP.V1.VALIDATION"
	CodeUpstream         Code = "RGP.V1.UPSTREAM_ERROR"
)

// Error is the package's single error type, carrying a stable code and its
// own HTTP status mapping.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// HTTPStatus maps the error's code to a response status, mirroring the
// teacher's writeError(w, status, code, msg) convention in
// internal/server/response.go.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidStop, CodeValidation:
		return http.StatusBadRequest
	case CodeProviderNotFound, CodeModelNotFound:
		return http.StatusNotFound
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}
