package middleware

import "net/http"

// SecurityHeaders sets a conservative baseline of response headers -
// nothing content-security-policy-specific, since responses are a JSON
// API and an SSE stream, not rendered HTML.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
