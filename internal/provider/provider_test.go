package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFallbackProviderYieldsOneChunkThenCloses(t *testing.T) {
	p := NewFallbackProvider()
	stream, err := p.CreateCompletion(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, fallbackMessage, chunk.Delta)
	require.Equal(t, "stop", chunk.FinishReason)

	_, err = stream.Recv()
	require.ErrorIs(t, err, ErrStreamClosed)
}

func TestNativeProviderStreamsTokensThenFinishes(t *testing.T) {
	p := NewNativeProvider(&NativeConfig{Threads: 8})
	stream, err := p.CreateCompletion(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello there"}},
	})
	require.NoError(t, err)
	defer stream.Close()

	var out string
	var finished bool
	for i := 0; i < 20; i++ {
		chunk, err := stream.Recv()
		require.NoError(t, err)
		out += chunk.Delta
		if chunk.FinishReason != "" {
			finished = true
			require.NotNil(t, chunk.Usage)
			break
		}
	}

	require.True(t, finished)
	require.Contains(t, out, "You said: hello there")
}

func TestNativeProviderStopsOnContextCancel(t *testing.T) {
	p := NewNativeProvider(&NativeConfig{Threads: 1})
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := p.CreateCompletion(ctx, &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "a long reply with many words in it"}},
	})
	require.NoError(t, err)
	defer stream.Close()

	cancel()
	_, err = stream.Recv()
	require.Error(t, err)
}
