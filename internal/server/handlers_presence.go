package server

import (
	"encoding/json"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/middleware"
)

type typingRequest struct {
	RootID  string `json:"rootId"`
	Typing  bool   `json:"typing"`
}

func (s *Server) handleTyping(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req typingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	if req.RootID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "rootId is required")
		return
	}

	if err := s.convo.SetTyping(r.Context(), user.ID, req.RootID, req.Typing); err != nil {
		writeConvoError(w, err)
		return
	}
	writeSuccess(w)
}

type heartbeatRequest struct {
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "conversationId is required")
		return
	}

	if err := s.convo.Heartbeat(r.Context(), user.ID, req.ConversationID); err != nil {
		writeConvoError(w, err)
		return
	}
	writeSuccess(w)
}
