package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnthropicProviderStreamsDeltasThenFinishes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			"event: content_block_delta\ndata: {\"delta\":{\"type\":\"text_delta\",\"text\":\"hel\"}}\n\n",
			"event: content_block_delta\ndata: {\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n",
			"event: message_delta\ndata: {\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":2}}\n\n",
			"event: message_stop\ndata: {}\n\n",
		}
		for _, frame := range frames {
			w.Write([]byte(frame))
		}
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(context.Background(), &AnthropicConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	stream, err := p.CreateCompletion(context.Background(), &CompletionRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	defer stream.Close()

	var out string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			break
		}
		out += chunk.Delta
		if chunk.FinishReason != "" {
			require.Equal(t, "end_turn", chunk.FinishReason)
			require.Equal(t, 2, chunk.Usage.CompletionTokens)
		}
	}
	require.Equal(t, "hello", out)
}

func TestAnthropicProviderRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(context.Background(), &AnthropicConfig{})
	require.Error(t, err)
}

func TestAnthropicProviderPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(context.Background(), &AnthropicConfig{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.CreateCompletion(context.Background(), &CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
}
