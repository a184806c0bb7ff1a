package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vannadii/rustygpt-go/internal/assistant"
	"github.com/vannadii/rustygpt-go/internal/middleware"
	"github.com/vannadii/rustygpt-go/internal/provider"
)

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []provider.Message  `json:"messages"`
	Stream      bool                `json:"stream"`
	Temperature float64             `json:"temperature"`
	TopP        float64             `json:"top_p"`
	MaxTokens   int                 `json:"max_tokens"`
	Stop        any                 `json:"stop"`
	Metadata    *chatRequestContext `json:"metadata"`
}

type chatRequestContext struct {
	ConversationID  string `json:"conversationId"`
	ParentMessageID string `json:"parentMessageId"`
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var body chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "messages is required")
		return
	}

	stopWords, err := assistant.ParseStopWords(body.Stop)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidStop, err.Error())
		return
	}

	req := &assistant.Request{
		Model:       body.Model,
		Messages:    body.Messages,
		Stream:      body.Stream,
		Temperature: body.Temperature,
		TopP:        body.TopP,
		MaxTokens:   body.MaxTokens,
		StopWords:   stopWords,
		CallerID:    user.ID,
	}
	if body.Metadata != nil && body.Metadata.ConversationID != "" {
		req.Metadata = &assistant.Metadata{
			ConversationID:  body.Metadata.ConversationID,
			ParentMessageID: body.Metadata.ParentMessageID,
		}
	}

	if body.Stream {
		s.streamChatCompletion(w, r, req)
		return
	}

	completion, err := s.pipeline.Complete(r.Context(), req)
	if err != nil {
		writeAssistantError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completion)
}

func (s *Server) streamChatCompletion(w http.ResponseWriter, r *http.Request, req *assistant.Request) {
	frames, err := s.pipeline.Stream(r.Context(), req)
	if err != nil {
		writeAssistantError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sw, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeStreamingSetup, "streaming unsupported")
		return
	}
	w.WriteHeader(http.StatusOK)
	sw.flush()

	for frame := range frames {
		if err := sw.writeRaw("data: " + frame.Data + "\n\n"); err != nil {
			return
		}
		if frame.Done {
			return
		}
	}
}

func writeAssistantError(w http.ResponseWriter, err error) {
	var ae *assistant.Error
	if errors.As(err, &ae) {
		writeError(w, ae.HTTPStatus(), string(ae.Code), ae.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
}

// spawnAssistantReply generates an assistant reply to the just-posted
// message in the background, detached from the HTTP request that posted
// it - a client disconnecting must not cancel the reply it triggered. The
// pipeline builds its own prompt from the message's ancestor chain, so no
// message list is threaded through here. callerID is the user who authored
// the message being replied to - the pipeline's stateful path requires a
// caller identity to check conversation access.
func (s *Server) spawnAssistantReply(conversationID, messageID, callerID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), assistantReplyTimeout)
		defer cancel()

		req := &assistant.Request{
			CallerID: callerID,
			Metadata: &assistant.Metadata{
				ConversationID:  conversationID,
				ParentMessageID: messageID,
				ReplyToExisting: true,
			},
		}
		_, _ = s.pipeline.Complete(ctx, req)
	}()
}

const assistantReplyTimeout = 2 * time.Minute
