package provider

import (
	"context"
	"fmt"
)

// ArkProvider implements Provider against Volcengine's ARK platform, which
// speaks the same chat/completions wire format as OpenAI under a different
// base URL and endpoint-id-as-model convention.
type ArkProvider struct {
	inner *OpenAIProvider
	id    string
}

// ArkConfig configures an ArkProvider.
type ArkConfig struct {
	APIKey    string
	BaseURL   string
	Model     string // ARK endpoint id
	MaxTokens int
}

const arkDefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// NewArkProvider builds a provider backed by Volcengine ARK.
func NewArkProvider(ctx context.Context, cfg *ArkConfig) (*ArkProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark: API key not set")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ark: endpoint id not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = arkDefaultBaseURL
	}

	inner, err := NewOpenAIProvider(ctx, &OpenAIConfig{
		ID:        "ark",
		APIKey:    cfg.APIKey,
		BaseURL:   baseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("ark: %w", err)
	}
	inner.models = arkModels(cfg.Model)

	return &ArkProvider{inner: inner, id: "ark"}, nil
}

func (p *ArkProvider) ID() string      { return p.id }
func (p *ArkProvider) Name() string    { return "ARK" }
func (p *ArkProvider) Models() []Model { return p.inner.Models() }

func (p *ArkProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (CompletionStream, error) {
	return p.inner.CreateCompletion(ctx, req)
}

func arkModels(endpointID string) []Model {
	return []Model{
		{ID: endpointID, Name: "ARK Model", ProviderID: "ark", ContextLength: 128000, MaxOutputTokens: 4096, SupportsVision: true},
	}
}
