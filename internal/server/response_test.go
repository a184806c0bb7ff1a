package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vannadii/rustygpt-go/internal/convo"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["message"] != "hello" {
		t.Errorf("expected message 'hello', got %q", result["message"])
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, ErrCodeValidation, "invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var result ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Error.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, result.Error.Code)
	}
	if result.Error.Message != "invalid input" {
		t.Errorf("expected message 'invalid input', got %q", result.Error.Message)
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	writeSuccess(w)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var result map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result["success"] {
		t.Error("expected success true")
	}
}

func TestTranslateConvoError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not participant", convo.ErrNotParticipant, http.StatusForbidden, ErrCodeForbidden},
		{"not author", convo.ErrNotAuthor, http.StatusForbidden, ErrCodeForbidden},
		{"not found", convo.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"validation", convo.ErrValidation, http.StatusBadRequest, ErrCodeValidation},
		{"rate limited", convo.ErrRateLimited, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, ErrCodeDatabase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := translateConvoError(tc.err)
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
			if code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestWriteConvoError(t *testing.T) {
	w := httptest.NewRecorder()
	writeConvoError(w, convo.ErrNotFound)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var result ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, result.Error.Code)
	}
}
