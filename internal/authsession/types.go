// Package authsession implements the cookie-backed session authority:
// Argon2id credential verification, opaque bearer tokens hashed at rest,
// CSRF double-submit pairing, and the idle/absolute/rotation lifecycle
// that decides whether a validated request gets a fresh session before
// the handler ever runs.
package authsession

import "time"

// Metadata captures the fingerprinting data recorded against a session:
// the user agent, remote address, and an optional client-supplied
// fingerprint, stored as free-form JSON alongside the session row.
type Metadata struct {
	UserAgent   string
	IP          string
	Fingerprint string
}

// User is the authenticated identity attached to a validated request.
type User struct {
	ID          string
	Email       string
	Username    string
	DisplayName string
	Roles       []string
}

// Session describes the session record backing a validated request.
type Session struct {
	ID                string
	IssuedAt          time.Time
	IdleExpiresAt     time.Time
	AbsoluteExpiresAt time.Time
}

// Bundle is the output of issuing or rotating a session: the raw bearer
// token and CSRF token a caller must set as cookies, plus the session
// record they now back.
type Bundle struct {
	Token     string
	CSRFToken string
	Session   Session
}

// Validation is the result of validating an inbound request's session
// cookie. Bundle is non-nil only when the session was rotated, in which
// case the caller must overwrite both cookies with the new values.
type Validation struct {
	User    User
	Session Session
	Bundle  *Bundle
	Rotated bool
}
