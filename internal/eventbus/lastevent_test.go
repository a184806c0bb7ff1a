package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLastEventIDBareSequence(t *testing.T) {
	seq, ok := ParseLastEventID("42")
	require.True(t, ok)
	require.Equal(t, uint64(42), seq)
}

func TestParseLastEventIDThreeComponent(t *testing.T) {
	seq, ok := ParseLastEventID("root:msg:7")
	require.True(t, ok)
	require.Equal(t, uint64(7), seq)
}

func TestParseLastEventIDEmpty(t *testing.T) {
	_, ok := ParseLastEventID("")
	require.False(t, ok)
}

func TestParseLastEventIDInvalid(t *testing.T) {
	_, ok := ParseLastEventID("not-a-number")
	require.False(t, ok)
}
