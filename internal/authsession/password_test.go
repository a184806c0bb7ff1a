package authsession

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vannadii/rustygpt-go/internal/config"
)

func testArgon2Config() config.Argon2Config {
	return config.Argon2Config{Time: 1, MemoryKB: 8 * 1024, Threads: 2, KeyLen: 32}
}

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	cfg := testArgon2Config()
	encoded, err := HashPassword(cfg, "correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, encoded, "$argon2id$")

	require.NoError(t, VerifyPassword(encoded, "correct horse battery staple"))
}

func TestVerifyPasswordRejectsWrongCandidate(t *testing.T) {
	cfg := testArgon2Config()
	encoded, err := HashPassword(cfg, "correct horse battery staple")
	require.NoError(t, err)

	err = VerifyPassword(encoded, "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	err := VerifyPassword("not-a-hash", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPasswordProducesDistinctSalts(t *testing.T) {
	cfg := testArgon2Config()
	a, err := HashPassword(cfg, "same password")
	require.NoError(t, err)
	b, err := HashPassword(cfg, "same password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
