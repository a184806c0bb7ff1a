package middleware

import (
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/authsession"
	"github.com/vannadii/rustygpt-go/internal/config"
)

// EnforceCSRF rejects state-changing requests (anything but GET, HEAD,
// OPTIONS) unless the configured header matches the CSRF cookie exactly -
// the double-submit pattern. The cookie compared is the one the client
// sent with this request; cookies Authenticate rotates onto the response
// are not consulted.
func EnforceCSRF(cfg config.CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(cfg.HeaderName)
			cookie := authsession.CSRFCookieValue(r)
			if err := authsession.CheckCSRF(header, cookie); err != nil {
				writeAuthError(w, http.StatusForbidden, "RGP.403", "csrf check failed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
