package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/logging"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

// AnthropicProvider implements Provider against Anthropic's Messages API.
type AnthropicProvider struct {
	id         string
	httpClient *http.Client
	apiKey     string
	baseURL    string
	models     []Model
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	ID        string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewAnthropicProvider builds a provider backed by the Anthropic API.
func NewAnthropicProvider(_ context.Context, cfg *AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key not set")
	}
	id := cfg.ID
	if id == "" {
		id = "anthropic"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &AnthropicProvider{
		id:         id,
		httpClient: &http.Client{},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		models:     anthropicModels(),
	}, nil
}

func (p *AnthropicProvider) ID() string      { return p.id }
func (p *AnthropicProvider) Name() string    { return "Anthropic" }
func (p *AnthropicProvider) Models() []Model { return p.models }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicStreamRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
	Stream      bool               `json:"stream"`
}

// CreateCompletion opens a streaming Messages call and returns a
// CompletionStream that decodes Anthropic's content_block_delta events.
func (p *AnthropicProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (CompletionStream, error) {
	body := anthropicStreamRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      true,
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			body.System = m.Content
			continue
		}
		body.Messages = append(body.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 4096
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	return &anthropicStream{sse: newSSEClient(resp)}, nil
}

type anthropicDeltaEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicStream struct {
	sse *sseClient
}

func (s *anthropicStream) Recv() (Chunk, error) {
	for {
		ev, err := s.sse.Next(context.Background())
		if err != nil {
			return Chunk{}, err
		}
		switch ev.Name {
		case "content_block_delta":
			var payload anthropicDeltaEvent
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				logging.Warn().Err(err).Msg("anthropic: malformed content_block_delta")
				continue
			}
			return Chunk{Delta: payload.Delta.Text}, nil
		case "message_delta":
			var payload anthropicDeltaEvent
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				continue
			}
			return Chunk{
				FinishReason: payload.Delta.StopReason,
				Usage: &Usage{
					CompletionTokens: payload.Usage.OutputTokens,
					TotalTokens:      payload.Usage.InputTokens + payload.Usage.OutputTokens,
				},
			}, nil
		case "message_stop":
			return Chunk{}, ErrStreamClosed
		default:
			// message_start, content_block_start/stop, ping - no payload we need.
			continue
		}
	}
}

func (s *anthropicStream) Close() error { return s.sse.Close() }

func anthropicModels() []Model {
	return []Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ProviderID: "anthropic", ContextLength: 200000, MaxOutputTokens: 64000, SupportsVision: true, InputPrice: 3.0, OutputPrice: 15.0},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ProviderID: "anthropic", ContextLength: 200000, MaxOutputTokens: 32000, SupportsVision: true, InputPrice: 15.0, OutputPrice: 75.0},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ProviderID: "anthropic", ContextLength: 200000, MaxOutputTokens: 8192, SupportsVision: true, InputPrice: 3.0, OutputPrice: 15.0},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ProviderID: "anthropic", ContextLength: 200000, MaxOutputTokens: 8192, SupportsVision: true, InputPrice: 0.8, OutputPrice: 4.0},
	}
}
