package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockResponseWriter struct {
	*httptest.ResponseRecorder
	flushed int
}

func (m *mockResponseWriter) Flush() {
	m.flushed++
}

func newMockResponseWriter() *mockResponseWriter {
	return &mockResponseWriter{ResponseRecorder: httptest.NewRecorder()}
}

type noFlushWriter struct{}

func (n *noFlushWriter) Header() http.Header       { return http.Header{} }
func (n *noFlushWriter) Write([]byte) (int, error) { return 0, nil }
func (n *noFlushWriter) WriteHeader(int)           {}

func TestNewSSEWriter(t *testing.T) {
	w := newMockResponseWriter()
	sse, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("newSSEWriter failed: %v", err)
	}
	if sse == nil {
		t.Fatal("SSE writer should not be nil")
	}
}

func TestNewSSEWriter_NoFlusher(t *testing.T) {
	w := &noFlushWriter{}
	_, err := newSSEWriter(w)
	if err == nil {
		t.Error("expected error for writer without Flusher")
	}
}

func TestSSEWriter_WriteEvent(t *testing.T) {
	w := newMockResponseWriter()
	sse, _ := newSSEWriter(w)

	if err := sse.writeEvent("1:2:3", "message.delta", []byte(`{"delta":"hi"}`)); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "id: 1:2:3\n") {
		t.Error("expected id line")
	}
	if !strings.Contains(body, "event: message.delta\n") {
		t.Error("expected event line")
	}
	if !strings.Contains(body, `"delta":"hi"`) {
		t.Error("expected data payload")
	}
	if w.flushed == 0 {
		t.Error("expected Flush to be called")
	}
}

func TestSSEWriter_WriteHeartbeat(t *testing.T) {
	w := newMockResponseWriter()
	sse, _ := newSSEWriter(w)

	sse.writeHeartbeat()

	body := w.Body.String()
	if !strings.Contains(body, "event: ping\n") {
		t.Errorf("expected ping event, got: %s", body)
	}
	if w.flushed == 0 {
		t.Error("expected Flush to be called")
	}
}

func TestSSEWriter_WriteRaw(t *testing.T) {
	w := newMockResponseWriter()
	sse, _ := newSSEWriter(w)

	if err := sse.writeRaw("data: [DONE]\n\n"); err != nil {
		t.Fatalf("writeRaw failed: %v", err)
	}
	if !strings.Contains(w.Body.String(), "data: [DONE]") {
		t.Error("expected raw payload written verbatim")
	}
}
