package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vannadii/rustygpt-go/internal/config"
	"github.com/vannadii/rustygpt-go/internal/logging"
)

// Registry manages all configured providers, keyed by provider id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	config    *config.Config
}

// NewRegistry creates an empty registry bound to cfg (used for
// DefaultModel's "provider/model" string resolution).
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		config:    cfg,
	}
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get retrieves a provider by id.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return p, nil
}

// List returns every registered provider in no particular order.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// GetModel retrieves one model from one provider.
func (r *Registry) GetModel(providerID, modelID string) (*Model, error) {
	p, err := r.Get(providerID)
	if err != nil {
		return nil, err
	}
	for _, m := range p.Models() {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("model not found: %s/%s", providerID, modelID)
}

// AllModels returns every model from every registered provider, ordered by
// a coarse quality heuristic so the newest/largest models sort first.
func (r *Registry) AllModels() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var models []Model
	for _, p := range r.providers {
		models = append(models, p.Models()...)
	}
	sort.Slice(models, func(i, j int) bool {
		return modelPriority(models[i].ID) > modelPriority(models[j].ID)
	})
	return models
}

// DefaultModel resolves the config's "provider/model" string, falling back
// to Claude Sonnet if present, then to whatever model sorts first.
func (r *Registry) DefaultModel() (*Model, error) {
	if r.config != nil && r.config.Model != "" {
		providerID, modelID := ParseModelString(r.config.Model)
		if model, err := r.GetModel(providerID, modelID); err == nil {
			return model, nil
		}
	}

	if model, err := r.GetModel("anthropic", "claude-sonnet-4-20250514"); err == nil {
		return model, nil
	}

	models := r.AllModels()
	if len(models) == 0 {
		return nil, fmt.Errorf("no models available")
	}
	return &models[0], nil
}

// ParseModelString splits a "provider/model" identifier. A string with no
// slash is treated as a bare model id under no particular provider.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

func modelPriority(modelID string) int {
	switch {
	case strings.Contains(modelID, "gpt-5"):
		return 100
	case strings.Contains(modelID, "claude-sonnet-4"):
		return 90
	case strings.Contains(modelID, "claude-opus"):
		return 85
	case strings.Contains(modelID, "gpt-4o"):
		return 80
	case strings.Contains(modelID, "claude-3-5"):
		return 75
	case strings.Contains(modelID, "native"):
		return 10
	case strings.Contains(modelID, "fallback"):
		return 0
	default:
		return 50
	}
}

// InitializeProviders builds and registers one provider per entry in
// cfg.Provider, auto-registering anthropic/openai from their well-known
// environment variables when cfg.Provider doesn't already configure them,
// and always registering the fallback provider so a conversation is never
// left without anything to reply with.
func InitializeProviders(ctx context.Context, cfg *config.Config) (*Registry, error) {
	registry := NewRegistry(cfg)
	configured := make(map[string]bool)

	for name, pc := range cfg.Provider {
		if pc.Disable {
			continue
		}
		configured[name] = true

		apiKey, baseURL := providerCredentials(pc)
		p, err := newProviderFromConfig(ctx, name, pc, apiKey, baseURL)
		if err != nil {
			logging.Warn().Err(err).Str("provider", name).Msg("provider: skipping misconfigured provider")
			continue
		}
		if p != nil {
			registry.Register(p)
		}
	}

	if !configured["anthropic"] {
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			p, err := NewAnthropicProvider(ctx, &AnthropicConfig{ID: "anthropic", APIKey: apiKey, MaxTokens: 8192})
			if err != nil {
				logging.Warn().Err(err).Msg("provider: failed to auto-register anthropic")
			} else {
				registry.Register(p)
			}
		}
	}

	if !configured["openai"] {
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			p, err := NewOpenAIProvider(ctx, &OpenAIConfig{ID: "openai", APIKey: apiKey, MaxTokens: 4096})
			if err != nil {
				logging.Warn().Err(err).Msg("provider: failed to auto-register openai")
			} else {
				registry.Register(p)
			}
		}
	}

	if !configured["native"] {
		registry.Register(NewNativeProvider(&NativeConfig{
			Threads:     cfg.Hardware.Threads,
			ContextSize: cfg.Hardware.ContextSize,
			BatchSize:   cfg.Hardware.BatchSize,
		}))
	}

	registry.Register(NewFallbackProvider())

	return registry, nil
}

func newProviderFromConfig(ctx context.Context, name string, pc config.ProviderConfig, apiKey, baseURL string) (Provider, error) {
	switch name {
	case "anthropic", "claude":
		return NewAnthropicProvider(ctx, &AnthropicConfig{ID: name, APIKey: apiKey, BaseURL: baseURL, Model: pc.Model, MaxTokens: pc.MaxTokens})
	case "openai":
		return NewOpenAIProvider(ctx, &OpenAIConfig{ID: name, APIKey: apiKey, BaseURL: baseURL, Model: pc.Model, MaxTokens: pc.MaxTokens})
	case "ark":
		return NewArkProvider(ctx, &ArkConfig{APIKey: apiKey, BaseURL: baseURL, Model: pc.Model, MaxTokens: pc.MaxTokens})
	case "native":
		return NewNativeProvider(&NativeConfig{ID: name}), nil
	case "fallback":
		return NewFallbackProvider(), nil
	default:
		// Unknown provider names are treated as OpenAI-compatible endpoints,
		// covering self-hosted and local servers that speak that wire format.
		if baseURL == "" {
			return nil, fmt.Errorf("unknown provider %q with no base URL", name)
		}
		return NewOpenAIProvider(ctx, &OpenAIConfig{ID: name, APIKey: apiKey, BaseURL: baseURL, Model: pc.Model, MaxTokens: pc.MaxTokens})
	}
}

func providerCredentials(pc config.ProviderConfig) (apiKey, baseURL string) {
	if pc.Options != nil {
		apiKey = pc.Options.APIKey
		baseURL = pc.Options.BaseURL
	}
	return apiKey, baseURL
}
