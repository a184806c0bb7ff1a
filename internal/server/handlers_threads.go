package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vannadii/rustygpt-go/internal/middleware"
)

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
		return
	}
	conv, err := s.convo.CreateConversation(r.Context(), user.ID)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	threads, err := s.convo.ListThreads(r.Context(), user.ID, conversationID, limit, offset)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleThreadTree(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	rootID := chi.URLParam(r, "rootID")
	conversationID := r.URL.Query().Get("conversationId")

	msgs, err := s.convo.GetThreadSubtree(r.Context(), user.ID, conversationID, rootID)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type postMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) handlePostRoot(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "content is required")
		return
	}
	role := req.Role
	if role == "" {
		role = "user"
	}

	msg, err := s.convo.PostRootMessage(r.Context(), user.ID, conversationID, role, req.Content)
	if err != nil {
		writeConvoError(w, err)
		return
	}

	if role == "user" {
		s.spawnAssistantReply(msg.ConversationID, msg.ID, user.ID)
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleReplyMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	parentID := chi.URLParam(r, "parentID")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "content is required")
		return
	}
	role := req.Role
	if role == "" {
		role = "user"
	}

	msg, err := s.convo.ReplyMessage(r.Context(), user.ID, parentID, role, req.Content)
	if err != nil {
		writeConvoError(w, err)
		return
	}

	if role == "user" {
		s.spawnAssistantReply(msg.ConversationID, msg.ID, user.ID)
	}
	writeJSON(w, http.StatusCreated, msg)
}

type editMessageRequest struct {
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "messageID")

	var req editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}

	msg, err := s.convo.EditMessage(r.Context(), user.ID, messageID, req.Content, req.Reason)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type deleteMessageRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "messageID")

	var req deleteMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	msg, err := s.convo.SoftDeleteMessage(r.Context(), user.ID, messageID, req.Reason)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleRestoreMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	messageID := chi.URLParam(r, "messageID")

	msg, err := s.convo.RestoreMessage(r.Context(), user.ID, messageID)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	chunks, err := s.convo.ListMessageChunks(r.Context(), messageID)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	rootID := chi.URLParam(r, "rootID")

	var req struct {
		ThroughMessageID string `json:"throughMessageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}

	if err := s.convo.MarkThreadRead(r.Context(), user.ID, rootID, req.ThroughMessageID); err != nil {
		writeConvoError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleUnreadSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	summary, err := s.convo.GetUnreadSummary(r.Context(), user.ID, conversationID)
	if err != nil {
		writeConvoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
