package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vannadii/rustygpt-go/internal/config"
)

func TestParseModelString(t *testing.T) {
	providerID, modelID := ParseModelString("anthropic/claude-sonnet-4-20250514")
	require.Equal(t, "anthropic", providerID)
	require.Equal(t, "claude-sonnet-4-20250514", modelID)

	providerID, modelID = ParseModelString("bare-model")
	require.Equal(t, "", providerID)
	require.Equal(t, "bare-model", modelID)
}

func TestRegistryGetAndList(t *testing.T) {
	r := NewRegistry(config.DefaultConfig())
	r.Register(NewFallbackProvider())

	p, err := r.Get("fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", p.ID())

	require.Len(t, r.List(), 1)

	_, err = r.Get("missing")
	require.Error(t, err)
}

func TestRegistryGetModel(t *testing.T) {
	r := NewRegistry(config.DefaultConfig())
	r.Register(NewFallbackProvider())

	m, err := r.GetModel("fallback", "fallback-static")
	require.NoError(t, err)
	require.Equal(t, "fallback-static", m.ID)

	_, err = r.GetModel("fallback", "missing-model")
	require.Error(t, err)
}

func TestRegistryDefaultModelFallsBackWhenUnconfigured(t *testing.T) {
	r := NewRegistry(config.DefaultConfig())
	r.Register(NewFallbackProvider())

	m, err := r.DefaultModel()
	require.NoError(t, err)
	require.Equal(t, "fallback-static", m.ID)
}

func TestRegistryDefaultModelHonorsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model = "fallback/fallback-static"
	r := NewRegistry(cfg)
	r.Register(NewFallbackProvider())

	m, err := r.DefaultModel()
	require.NoError(t, err)
	require.Equal(t, "fallback-static", m.ID)
}

func TestAllModelsSortsByPriority(t *testing.T) {
	r := NewRegistry(config.DefaultConfig())
	r.Register(NewFallbackProvider())
	r.Register(NewNativeProvider(&NativeConfig{ID: "native"}))

	models := r.AllModels()
	require.Len(t, models, 2)
	require.Equal(t, "native-default", models[0].ID)
	require.Equal(t, "fallback-static", models[1].ID)
}
