package authsession

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

func newToken(n int) (raw string, err error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("authsession: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newSessionToken generates the 32-byte bearer token handed to the
// client; only its hash is ever persisted.
func newSessionToken() (string, error) {
	return newToken(32)
}

// newCSRFToken generates the double-submit CSRF token. It is stored
// nowhere server-side - the session cookie value itself (via its hash)
// is the only persisted secret, and the CSRF cookie/header pair is
// compared directly on each mutating request.
func newCSRFToken() (string, error) {
	return newToken(16)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// constantTimeEqual compares two strings without leaking timing
// information about where they first differ.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
