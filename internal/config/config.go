// Package config provides configuration loading and path management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// Load loads configuration from multiple sources (priority order):
//  1. Built-in defaults
//  2. Global config (~/.config/rustygpt/)
//  3. Project config (<directory>/.rustygpt/)
//  4. .env file in directory, if present
//  5. Environment variables
func Load(directory string) (*Config, error) {
	cfg := DefaultConfig()

	globalPath := GetPaths().Config
	loadConfigFile(filepath.Join(globalPath, "rustygpt.jsonc"), cfg)

	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
		loadConfigFile(filepath.Join(directory, ".rustygpt", "rustygpt.jsonc"), cfg)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadConfigFile loads a single JSONC config file, merging it into cfg.
// A missing file is not an error - it simply means that layer is absent.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	clean := jsonc.ToJSON(data)

	var layer Config
	layer.Provider = make(map[string]ProviderConfig)
	if err := json.Unmarshal(clean, &layer); err != nil {
		return err
	}

	mergeConfig(cfg, &layer)
	return nil
}

// mergeConfig overlays the non-zero values of the fields checked below from
// source onto target; any other field of source (server timeouts, cookie
// Secure, CORS credentials, rate limits, logging) is ignored. Feature flags
// are OR-ed, SSE persistence is replaced as a whole when source enables it,
// and the provider map is merged key-by-key rather than replaced wholesale.
func mergeConfig(target, source *Config) {
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.Directory != "" {
		target.Server.Directory = source.Server.Directory
	}
	if source.Database.DSN != "" {
		target.Database.DSN = source.Database.DSN
	}
	if source.Database.MaxConnections != 0 {
		target.Database.MaxConnections = source.Database.MaxConnections
	}
	if source.Database.StatementTimeout != 0 {
		target.Database.StatementTimeout = source.Database.StatementTimeout
	}
	if source.Session.IdleSeconds != 0 {
		target.Session.IdleSeconds = source.Session.IdleSeconds
	}
	if source.Session.AbsoluteSeconds != 0 {
		target.Session.AbsoluteSeconds = source.Session.AbsoluteSeconds
	}
	if source.Session.MaxSessionsPerUser != 0 {
		target.Session.MaxSessionsPerUser = source.Session.MaxSessionsPerUser
	}
	if source.Cookie.Domain != "" {
		target.Cookie.Domain = source.Cookie.Domain
	}
	if source.Cookie.SameSite != "" {
		target.Cookie.SameSite = source.Cookie.SameSite
	}
	if source.CSRF.HeaderName != "" {
		target.CSRF.HeaderName = source.CSRF.HeaderName
	}
	if len(source.CORS.AllowedOrigins) > 0 {
		target.CORS.AllowedOrigins = source.CORS.AllowedOrigins
	}
	if source.SSE.ChannelCapacity != 0 {
		target.SSE.ChannelCapacity = source.SSE.ChannelCapacity
	}
	if source.SSE.HistoryCapacity != 0 {
		target.SSE.HistoryCapacity = source.SSE.HistoryCapacity
	}
	if source.SSE.Persistence.Enabled {
		target.SSE.Persistence = source.SSE.Persistence
	}
	target.Features.AuthV1 = target.Features.AuthV1 || source.Features.AuthV1
	target.Features.SSEV1 = target.Features.SSEV1 || source.Features.SSEV1

	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}

	if source.Hardware.Threads != 0 {
		target.Hardware.Threads = source.Hardware.Threads
	}
	if source.Hardware.GPULayers != 0 {
		target.Hardware.GPULayers = source.Hardware.GPULayers
	}
	if source.Hardware.ContextSize != 0 {
		target.Hardware.ContextSize = source.Hardware.ContextSize
	}
	if source.Hardware.BatchSize != 0 {
		target.Hardware.BatchSize = source.Hardware.BatchSize
	}
}

// applyEnvOverrides layers environment variables on top of loaded config
// files; this is the final, highest-priority layer.
func applyEnvOverrides(cfg *Config) {
	providerEnvMap := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"ark":       "ARK_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			if cfg.Provider == nil {
				cfg.Provider = make(map[string]ProviderConfig)
			}
			p := cfg.Provider[provider]
			if p.Options == nil {
				p.Options = &ProviderOptions{}
			}
			if p.Options.APIKey == "" {
				p.Options.APIKey = apiKey
				cfg.Provider[provider] = p
			}
		}
	}

	if model := os.Getenv("RUSTYGPT_MODEL"); model != "" {
		cfg.Model = model
	}
	if dsn := os.Getenv("RUSTYGPT_DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if domain := os.Getenv("RUSTYGPT_COOKIE_DOMAIN"); domain != "" {
		cfg.Cookie.Domain = domain
	}
}

// Save writes the configuration to path as indented JSON.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
