package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/authsession"
	"github.com/vannadii/rustygpt-go/internal/config"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Authenticate validates the inbound session cookie on every request,
// attaching the resolved user to the request context on success. A
// rotated session gets fresh cookies and an X-Session-Rotated: 1 header
// written before the handler runs.
func Authenticate(authority *authsession.Authority, cookieCfg config.CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := authsession.SessionTokenFromRequest(r)
			meta := authsession.RequestMetadata(r)

			validation, err := authority.Validate(r.Context(), token, meta)
			if err != nil {
				switch {
				case errors.Is(err, authsession.ErrSessionNotFound):
					writeAuthError(w, http.StatusUnauthorized, "RGP.401", "not authenticated")
				case errors.Is(err, authsession.ErrDisabledUser):
					writeAuthError(w, http.StatusForbidden, "RGP.403", "account disabled")
				case errors.Is(err, authsession.ErrSessionExpired), errors.Is(err, authsession.ErrAbsoluteExpired):
					authsession.ClearSessionCookies(w, cookieCfg)
					writeAuthError(w, http.StatusUnauthorized, "RGP.401", "session expired")
				default:
					writeAuthError(w, http.StatusInternalServerError, "RGP.DATABASE", "session validation failed")
				}
				return
			}

			if validation.Rotated && validation.Bundle != nil {
				authsession.SetSessionCookies(w, cookieCfg, *validation.Bundle)
				w.Header().Set("X-Session-Rotated", "1")
			}

			next.ServeHTTP(w, withUser(r, validation.User))
		})
	}
}

// RequireRole rejects requests whose authenticated user lacks role.
// Must run after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "RGP.401", "not authenticated")
				return
			}
			for _, have := range user.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "RGP.403", "insufficient role")
		})
	}
}
