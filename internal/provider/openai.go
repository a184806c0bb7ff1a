package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/logging"
)

const openAIDefaultBaseURL = "https://api.openai.com"

// OpenAIProvider implements Provider against OpenAI's chat completions API,
// and against any OpenAI-compatible endpoint reachable by overriding BaseURL
// (Azure, local inference servers, third-party compatible hosts).
type OpenAIProvider struct {
	id         string
	httpClient *http.Client
	apiKey     string
	baseURL    string
	models     []Model
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	ID        string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewOpenAIProvider builds a provider backed by the OpenAI chat completions
// API or an OpenAI-compatible endpoint.
func NewOpenAIProvider(_ context.Context, cfg *OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: API key not set")
	}
	id := cfg.ID
	if id == "" {
		id = "openai"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &OpenAIProvider{
		id:         id,
		httpClient: &http.Client{},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		models:     openAIModels(),
	}, nil
}

func (p *OpenAIProvider) ID() string      { return p.id }
func (p *OpenAIProvider) Name() string    { return "OpenAI" }
func (p *OpenAIProvider) Models() []Model { return p.models }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIStreamRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         float64         `json:"temperature,omitempty"`
	TopP                float64         `json:"top_p,omitempty"`
	Stop                []string        `json:"stop,omitempty"`
	Stream              bool            `json:"stream"`
}

// CreateCompletion opens a streaming chat/completions call and decodes
// OpenAI's choices[0].delta chunks.
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (CompletionStream, error) {
	body := openAIStreamRequest{
		Model:               req.Model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         req.Temperature,
		TopP:                req.TopP,
		Stop:                req.StopWords,
		Stream:              true,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	return &openAIStream{sse: newSSEClient(resp)}, nil
}

type openAIChunkEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIStream struct {
	sse *sseClient
}

func (s *openAIStream) Recv() (Chunk, error) {
	for {
		ev, err := s.sse.Next(context.Background())
		if err != nil {
			return Chunk{}, err
		}
		if ev.Data == "[DONE]" {
			return Chunk{}, ErrStreamClosed
		}

		var payload openAIChunkEvent
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			logging.Warn().Err(err).Msg("openai: malformed stream chunk")
			continue
		}

		chunk := Chunk{}
		if payload.Usage != nil {
			chunk.Usage = &Usage{
				PromptTokens:     payload.Usage.PromptTokens,
				CompletionTokens: payload.Usage.CompletionTokens,
				TotalTokens:      payload.Usage.TotalTokens,
			}
		}
		if len(payload.Choices) > 0 {
			chunk.Delta = payload.Choices[0].Delta.Content
			chunk.FinishReason = payload.Choices[0].FinishReason
		}
		if chunk.Delta == "" && chunk.FinishReason == "" && chunk.Usage == nil {
			continue
		}
		return chunk, nil
	}
}

func (s *openAIStream) Close() error { return s.sse.Close() }

func openAIModels() []Model {
	return []Model{
		{ID: "gpt-5", Name: "GPT-5", ProviderID: "openai", ContextLength: 272000, MaxOutputTokens: 128000, SupportsVision: true, InputPrice: 1.25, OutputPrice: 10.0},
		{ID: "gpt-5-mini", Name: "GPT-5 Mini", ProviderID: "openai", ContextLength: 272000, MaxOutputTokens: 128000, SupportsVision: true, InputPrice: 0.25, OutputPrice: 2.0},
		{ID: "gpt-4o", Name: "GPT-4o", ProviderID: "openai", ContextLength: 128000, MaxOutputTokens: 16384, SupportsVision: true, InputPrice: 2.5, OutputPrice: 10.0},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ProviderID: "openai", ContextLength: 128000, MaxOutputTokens: 16384, SupportsVision: true, InputPrice: 0.15, OutputPrice: 0.6},
	}
}
