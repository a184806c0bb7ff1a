// Package middleware provides the HTTP middleware chain: request id,
// structured request logging, panic recovery, CORS, security headers,
// rate limiting, session authentication, and CSRF enforcement. Ordering
// mirrors a conventional chi stack: infrastructure concerns first,
// authentication once a request is known to be well-formed, CSRF last
// since it only applies to the handful of mutating routes that need it.
package middleware

import (
	"context"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/authsession"
)

type contextKey string

const userContextKey contextKey = "rustygpt.user"

// UserFromContext extracts the authenticated user attached by Authenticate.
func UserFromContext(ctx context.Context) (authsession.User, bool) {
	u, ok := ctx.Value(userContextKey).(authsession.User)
	return u, ok
}

func withUser(r *http.Request, u authsession.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, u))
}
