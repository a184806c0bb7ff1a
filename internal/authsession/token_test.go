package authsession

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionTokenIsUnique(t *testing.T) {
	a, err := newSessionToken()
	require.NoError(t, err)
	b, err := newSessionToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	token := "some-opaque-token"
	require.Equal(t, hashToken(token), hashToken(token))
	require.NotEqual(t, hashToken(token), hashToken(token+"x"))
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, constantTimeEqual("abc", "abc"))
	require.False(t, constantTimeEqual("abc", "abd"))
	require.False(t, constantTimeEqual("abc", "abcd"))
}
