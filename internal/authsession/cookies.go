package authsession

import (
	"net/http"
	"time"

	"github.com/vannadii/rustygpt-go/internal/config"
)

const (
	sessionCookieName = "rgp_session"
	csrfCookieName    = "rgp_csrf"
)

func sameSite(value string) http.SameSite {
	switch value {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func maxAge(expiresAt time.Time) int {
	d := time.Until(expiresAt)
	if d < 0 {
		d = 0
	}
	return int(d.Seconds())
}

// SetSessionCookies writes both the HttpOnly session cookie and the
// readable CSRF cookie for a freshly issued or rotated bundle.
func SetSessionCookies(w http.ResponseWriter, cookieCfg config.CookieConfig, b Bundle) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    b.Token,
		Path:     "/",
		Domain:   cookieCfg.Domain,
		Expires:  b.Session.IdleExpiresAt,
		MaxAge:   maxAge(b.Session.IdleExpiresAt),
		HttpOnly: true,
		Secure:   cookieCfg.Secure,
		SameSite: sameSite(cookieCfg.SameSite),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    b.CSRFToken,
		Path:     "/",
		Domain:   cookieCfg.Domain,
		Expires:  b.Session.IdleExpiresAt,
		MaxAge:   maxAge(b.Session.IdleExpiresAt),
		HttpOnly: false,
		Secure:   cookieCfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookies expires both cookies immediately - issued on logout.
func ClearSessionCookies(w http.ResponseWriter, cookieCfg config.CookieConfig) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookieName, Value: "", Path: "/", Domain: cookieCfg.Domain,
		Expires: expired, MaxAge: -1, HttpOnly: true, Secure: cookieCfg.Secure, SameSite: sameSite(cookieCfg.SameSite),
	})
	http.SetCookie(w, &http.Cookie{
		Name: csrfCookieName, Value: "", Path: "/", Domain: cookieCfg.Domain,
		Expires: expired, MaxAge: -1, HttpOnly: false, Secure: cookieCfg.Secure, SameSite: http.SameSiteStrictMode,
	})
}

// SessionTokenFromRequest reads the bearer token from the session cookie,
// returning "" if absent.
func SessionTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// CSRFCookieValue reads the CSRF cookie's value, returning "" if absent.
func CSRFCookieValue(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequestMetadata builds session fingerprinting metadata from an inbound
// request - the user agent header and a normalized remote address.
func RequestMetadata(r *http.Request) Metadata {
	return Metadata{
		UserAgent: r.UserAgent(),
		IP:        remoteIP(r),
	}
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
