// Package assistant implements the chat-completions pipeline: prompt
// assembly, the provider call, the stateful stream controller that
// materializes an assistant reply into a conversation's message tree as it
// streams, and the finalization logic that computes finish reasons, usage,
// and warning text exactly once per generation.
//
// The finish-reason control loop and chunk-accumulation-plus-per-delta-
// event-publication pattern carry over from a part-oriented message model
// (text/reasoning/tool parts); here that's replaced with a flat
// content-plus-accumulator model, since there is no tool-use concept.
package assistant

import (
	"time"

	"github.com/vannadii/rustygpt-go/internal/provider"
)

// FinishReason values a completion can end with.
const (
	FinishStop      = "stop"
	FinishCancelled = "cancelled"
	FinishTimeout   = "timeout"
	FinishError     = "error"
)

// Metadata anchors a completion request to a conversation and parent
// message, switching the pipeline into stateful mode.
type Metadata struct {
	ConversationID  string
	ParentMessageID string
	// ReplyToExisting skips creating a new user message under
	// ParentMessageID and generates directly against its existing
	// ancestor chain - the background auto-reply path, where the human
	// message was already persisted by the HTTP handler that triggered
	// this completion.
	ReplyToExisting bool
}

// Request is a chat-completions call, stateless unless Metadata is set.
type Request struct {
	Model       string
	Messages    []provider.Message
	Stream      bool
	Temperature float64
	TopP        float64
	MaxTokens   int
	StopWords   []string
	Metadata    *Metadata
	CallerID    string
}

// Usage mirrors provider.Usage in the shape the chat-completion response
// schema expects.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one entry of a non-streamed chat-completion response. This API
// never produces more than one.
type Choice struct {
	Index        int             `json:"index"`
	Message      provider.Message `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ChatCompletion is the non-streamed response body.
type ChatCompletion struct {
	ID       string    `json:"id"`
	Object   string    `json:"object"`
	Created  int64     `json:"created"`
	Model    string    `json:"model"`
	Choices  []Choice  `json:"choices"`
	Usage    Usage     `json:"usage"`
	Warnings []string  `json:"warnings,omitempty"`
}

// StreamFrame is one SSE data payload the HTTP layer writes verbatim,
// already JSON-encoded except for the terminating "[DONE]" sentinel.
type StreamFrame struct {
	Data string
	Done bool
}

func unixNow() int64 { return time.Now().Unix() }
