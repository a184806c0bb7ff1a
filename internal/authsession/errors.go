package authsession

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a
	// failed password check - the two are never distinguished to a
	// caller, to avoid leaking account existence.
	ErrInvalidCredentials = errors.New("authsession: invalid credentials")
	ErrDisabledUser       = errors.New("authsession: account disabled")
	ErrSessionNotFound    = errors.New("authsession: no such session")
	ErrSessionExpired     = errors.New("authsession: session idle-expired")
	ErrAbsoluteExpired    = errors.New("authsession: session absolute lifetime exceeded")
	ErrCSRFMismatch       = errors.New("authsession: csrf token mismatch")
	ErrMissingCSRFToken   = errors.New("authsession: missing csrf token")
)
