package authsession

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vannadii/rustygpt-go/internal/config"
)

func testAuthority() *Authority {
	cfg := config.DefaultConfig()
	cfg.Session.IdleSeconds = 1800
	return &Authority{cfg: cfg}
}

func TestRotationThresholdIsHalfIdleWindow(t *testing.T) {
	a := testAuthority()
	require.Equal(t, 900*time.Second, a.rotationThreshold())
}

func TestRotationThresholdNeverZero(t *testing.T) {
	a := testAuthority()
	a.cfg.Session.IdleSeconds = 1
	require.Equal(t, time.Second, a.rotationThreshold())
}

func TestMaxSessionsPerUserNilWhenUnset(t *testing.T) {
	a := testAuthority()
	a.cfg.Session.MaxSessionsPerUser = 0
	require.Nil(t, a.maxSessionsPerUser())

	a.cfg.Session.MaxSessionsPerUser = 5
	require.NotNil(t, a.maxSessionsPerUser())
	require.Equal(t, 5, *a.maxSessionsPerUser())
}

func TestStringSlicesEqualIgnoresOrder(t *testing.T) {
	require.True(t, stringSlicesEqual([]string{"a", "b"}, []string{"b", "a"}))
	require.False(t, stringSlicesEqual([]string{"a", "b"}, []string{"a"}))
	require.False(t, stringSlicesEqual([]string{"a", "a"}, []string{"a", "b"}))
}

func TestCheckCSRFRequiresBothValues(t *testing.T) {
	require.ErrorIs(t, CheckCSRF("", "x"), ErrMissingCSRFToken)
	require.ErrorIs(t, CheckCSRF("x", ""), ErrMissingCSRFToken)
}

func TestCheckCSRFRejectsMismatch(t *testing.T) {
	require.ErrorIs(t, CheckCSRF("a", "b"), ErrCSRFMismatch)
	require.NoError(t, CheckCSRF("same", "same"))
}

func TestSetAndReadSessionCookies(t *testing.T) {
	cookieCfg := config.CookieConfig{Secure: true, SameSite: "Strict", Domain: "example.com"}
	bundle := Bundle{
		Token:     "tok123",
		CSRFToken: "csrf456",
		Session:   Session{IdleExpiresAt: time.Now().Add(time.Hour)},
	}

	rec := httptest.NewRecorder()
	SetSessionCookies(rec, cookieCfg, bundle)

	res := rec.Result()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range res.Cookies() {
		req.AddCookie(c)
	}
	require.Equal(t, "tok123", SessionTokenFromRequest(req))
	require.Equal(t, "csrf456", CSRFCookieValue(req))
}
