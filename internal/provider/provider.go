// Package provider abstracts the LLM backends a conversation can be
// completed against: hosted APIs (Anthropic, OpenAI, Volcengine ARK), a
// stdlib-only native backend sized to the host's hardware, and a
// zero-dependency fallback that InitializeProviders always registers.
// Nothing switches to the fallback when a configured backend errors out.
package provider

import (
	"context"
	"errors"
)

// Role identifies the speaker of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history sent to a provider. It is
// intentionally flatter than the stored convo.Message: no path, no depth,
// no author id, just what a completion call needs to reproduce a prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Model describes one model a provider can serve.
type Model struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProviderID      string  `json:"providerId"`
	ContextLength   int     `json:"contextLength"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	SupportsVision  bool    `json:"supportsVision"`
	InputPrice      float64 `json:"inputPrice"`
	OutputPrice     float64 `json:"outputPrice"`
}

// CompletionRequest is a request to stream a completion from a provider.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"maxTokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"topP,omitempty"`
	StopWords   []string  `json:"stopWords,omitempty"`
}

// Chunk is one increment of a streaming completion. FinishReason is empty
// until the final chunk, at which point Delta is typically empty and
// FinishReason carries the provider's stop reason ("stop", "length",
// "content_filter", ...).
type Chunk struct {
	Delta        string
	FinishReason string
	Usage        *Usage
}

// Usage carries token accounting, populated on the final chunk when the
// provider reports it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrStreamClosed is returned by Recv once a stream has been fully consumed
// or explicitly closed.
var ErrStreamClosed = errors.New("provider: stream closed")

// CompletionStream delivers a completion incrementally. Callers must call
// Close exactly once, even after Recv returns an error.
type CompletionStream interface {
	Recv() (Chunk, error)
	Close() error
}

// Provider is an LLM backend capable of streaming chat completions.
type Provider interface {
	ID() string
	Name() string
	Models() []Model
	CreateCompletion(ctx context.Context, req *CompletionRequest) (CompletionStream, error)
}
