package config

import "time"

// Config is the full tunable profile for the server: cookie/session policy,
// CSRF, rate limiting, CORS, the event bus's in-memory and durable retention,
// feature flags, the database pool, and the LLM provider roster.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Cookie   CookieConfig   `json:"cookie"`
	Session  SessionConfig  `json:"session"`
	CSRF     CSRFConfig     `json:"csrf"`
	CORS     CORSConfig     `json:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit"`
	SSE      SSEConfig      `json:"sse"`
	Features FeatureFlags   `json:"features"`
	Database DatabaseConfig `json:"database"`
	Argon2   Argon2Config   `json:"argon2"`

	// Model is the default "provider/model" string used when a chat-completion
	// request does not name one explicitly.
	Model string `json:"model"`
	// Provider holds per-provider configuration keyed by provider id.
	Provider map[string]ProviderConfig `json:"provider"`
	Hardware HardwareConfig            `json:"hardware"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port         int           `json:"port"`
	Directory    string        `json:"directory"`
	ReadTimeout  time.Duration `json:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout"`
}

// CookieConfig controls attributes shared by the session and CSRF cookies.
type CookieConfig struct {
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite"` // "Strict", "Lax", "None"
	Domain   string `json:"domain"`
}

// SessionConfig controls session lifetime and per-user bookkeeping.
type SessionConfig struct {
	IdleSeconds        int64 `json:"idleSeconds"`
	AbsoluteSeconds    int64 `json:"absoluteSeconds"`
	MaxSessionsPerUser int   `json:"maxSessionsPerUser"`
}

// CSRFConfig controls the double-submit header/cookie pairing.
type CSRFConfig struct {
	HeaderName string `json:"headerName"`
}

// CORSConfig controls cross-origin rules.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowedOrigins"`
	AllowCredentials bool     `json:"allowCredentials"`
}

// RateLimitConfig configures distinct token buckets for read and
// state-changing routes.
type RateLimitConfig struct {
	ReadRPS   float64 `json:"readRps"`
	ReadBurst int     `json:"readBurst"`
	WriteRPS  float64 `json:"writeRps"`
	WriteBurst int    `json:"writeBurst"`
}

// SSEConfig configures the stream hub and its optional durable backing.
type SSEConfig struct {
	ChannelCapacity int            `json:"channelCapacity"`
	HistoryCapacity int            `json:"historyCapacity"`
	Persistence     SSEPersistence `json:"persistence"`
}

// SSEPersistence configures the durable event store.
type SSEPersistence struct {
	Enabled          bool `json:"enabled"`
	MaxEventsPerUser int  `json:"maxEventsPerUser"`
	PruneBatchSize   int  `json:"pruneBatchSize"`
	RetentionHours   int  `json:"retentionHours"`
}

// FeatureFlags gates rollout of subsystems.
type FeatureFlags struct {
	AuthV1 bool `json:"auth_v1"`
	SSEV1  bool `json:"sse_v1"`
}

// DatabaseConfig controls the stored-procedure driver pool.
type DatabaseConfig struct {
	DSN               string        `json:"dsn"`
	MaxConnections    int           `json:"maxConnections"`
	StatementTimeout  time.Duration `json:"statementTimeout"`
}

// Argon2Config names the password-hashing profile.
type Argon2Config struct {
	Time    uint32 `json:"time"`
	MemoryKB uint32 `json:"memoryKb"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"keyLen"`
}

// ProviderConfig configures one model provider.
type ProviderConfig struct {
	Disable   bool              `json:"disable"`
	Model     string            `json:"model"`
	MaxTokens int               `json:"maxTokens"`
	Options   *ProviderOptions  `json:"options,omitempty"`
}

// ProviderOptions carries credentials and endpoint overrides.
type ProviderOptions struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
}

// HardwareConfig overrides auto-detected runtime tuning for the native
// provider. Zero values mean "let hardware detection decide".
type HardwareConfig struct {
	Threads      int `json:"threads"`
	GPULayers    int `json:"gpuLayers"`
	ContextSize  int `json:"contextSize"`
	BatchSize    int `json:"batchSize"`
}

// DefaultConfig returns conservative defaults for every tunable the profile
// covers. Callers layer global config, project config, and env overrides on
// top of this base.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // SSE responses never time out on write
		},
		Cookie: CookieConfig{
			Secure:   true,
			SameSite: "Lax",
		},
		Session: SessionConfig{
			IdleSeconds:        1800,
			AbsoluteSeconds:    86400 * 14,
			MaxSessionsPerUser: 10,
		},
		CSRF: CSRFConfig{
			HeaderName: "X-CSRF-Token",
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: true,
		},
		RateLimit: RateLimitConfig{
			ReadRPS:    20,
			ReadBurst:  40,
			WriteRPS:   5,
			WriteBurst: 10,
		},
		SSE: SSEConfig{
			ChannelCapacity: 256,
			HistoryCapacity: 64,
			Persistence: SSEPersistence{
				Enabled:          false,
				MaxEventsPerUser: 10000,
				PruneBatchSize:   500,
				RetentionHours:   72,
			},
		},
		Features: FeatureFlags{
			AuthV1: true,
			SSEV1:  true,
		},
		Database: DatabaseConfig{
			MaxConnections:   10,
			StatementTimeout: 5 * time.Second,
		},
		Argon2: Argon2Config{
			Time:     1,
			MemoryKB: 64 * 1024,
			Threads:  4,
			KeyLen:   32,
		},
		Provider: make(map[string]ProviderConfig),
	}
}
