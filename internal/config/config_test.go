package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatedHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	return tmpDir
}

func TestLoadDefaults(t *testing.T) {
	isolatedHome(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1800), cfg.Session.IdleSeconds)
	assert.True(t, cfg.Features.AuthV1)
}

func TestLoadProjectJSONC(t *testing.T) {
	isolatedHome(t)
	projectDir := t.TempDir()

	jsonc := `{
		// project overrides
		"model": "anthropic/claude-sonnet-4-20250514",
		"session": { "idleSeconds": 900 },
		"provider": {
			"anthropic": {
				"options": { "apiKey": "sk-ant-test123" } // inline comment
			}
		}
	}`

	configPath := filepath.Join(projectDir, ".rustygpt", "rustygpt.jsonc")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte(jsonc), 0644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, int64(900), cfg.Session.IdleSeconds)
	require.NotNil(t, cfg.Provider["anthropic"].Options)
	assert.Equal(t, "sk-ant-test123", cfg.Provider["anthropic"].Options.APIKey)
}

func TestLoadMergesGlobalAndProject(t *testing.T) {
	home := isolatedHome(t)
	project := t.TempDir()

	global := `{"model": "anthropic/claude-sonnet-4-20250514", "provider": {"anthropic": {"options": {"apiKey": "global-key"}}}}`
	globalDir := filepath.Join(home, ".config", "rustygpt")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "rustygpt.jsonc"), []byte(global), 0644))

	projectCfg := `{"model": "openai/gpt-4o"}`
	projectDir := filepath.Join(project, ".rustygpt")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "rustygpt.jsonc"), []byte(projectCfg), 0644))

	cfg, err := Load(project)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", cfg.Model)
	require.NotNil(t, cfg.Provider["anthropic"].Options)
	assert.Equal(t, "global-key", cfg.Provider["anthropic"].Options.APIKey)
}

func TestEnvOverridesTakePriority(t *testing.T) {
	isolatedHome(t)
	os.Setenv("RUSTYGPT_MODEL", "env-model")
	defer os.Unsetenv("RUSTYGPT_MODEL")

	projectDir := t.TempDir()
	configPath := filepath.Join(projectDir, ".rustygpt", "rustygpt.jsonc")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte(`{"model": "file-model"}`), 0644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Model)
}

func TestProviderAPIKeyFromEnv(t *testing.T) {
	isolatedHome(t)
	os.Setenv("ANTHROPIC_API_KEY", "from-env")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.NotNil(t, cfg.Provider["anthropic"].Options)
	assert.Equal(t, "from-env", cfg.Provider["anthropic"].Options.APIKey)
}

func TestMergeConfigProviders(t *testing.T) {
	target := DefaultConfig()
	target.Provider["anthropic"] = ProviderConfig{Model: "claude-sonnet-4-20250514"}

	source := DefaultConfig()
	source.Provider = map[string]ProviderConfig{
		"openai": {Model: "gpt-4o"},
	}

	mergeConfig(target, source)

	assert.Len(t, target.Provider, 2)
	assert.Equal(t, "claude-sonnet-4-20250514", target.Provider["anthropic"].Model)
	assert.Equal(t, "gpt-4o", target.Provider["openai"].Model)
}
