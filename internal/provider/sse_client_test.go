package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSSEClientFromString(body string) *sseClient {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}
	return newSSEClient(resp)
}

func TestSSEClientParsesNamedEvent(t *testing.T) {
	c := newSSEClientFromString("event: content_block_delta\ndata: {\"a\":1}\n\n")
	ev, err := c.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "content_block_delta", ev.Name)
	require.Equal(t, `{"a":1}`, ev.Data)
}

func TestSSEClientJoinsMultilineData(t *testing.T) {
	c := newSSEClientFromString("data: line1\ndata: line2\n\n")
	ev, err := c.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "line1\nline2", ev.Data)
}

func TestSSEClientIgnoresComments(t *testing.T) {
	c := newSSEClientFromString(": heartbeat\ndata: hi\n\n")
	ev, err := c.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hi", ev.Data)
}

func TestSSEClientReturnsErrorAtEOF(t *testing.T) {
	c := newSSEClientFromString("")
	_, err := c.Next(context.Background())
	require.Error(t, err)
}
