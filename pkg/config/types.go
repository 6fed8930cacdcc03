package config

import (
	"path/filepath"
	"time"
)

// Config is the umbrella configuration object produced by Initialize and
// passed down through cmd/deckengine's wiring.
type Config struct {
	configPath string

	Server       ServerConfig
	Database     DatabaseConfig
	RateLimit    RateLimitConfig
	Concurrency  ConcurrencyConfig
	Retry        RetryConfig
	Events       EventsConfig
	AIClient     AIClientConfig
	ImageSearch  ImageSearchConfig
	Media        MediaConfig
	PauseResume  PauseResumeConfig
	RAG          RAGConfig
	Thumbnail    ThumbnailConfig
	Registry     RegistryConfig
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	AllowedWSOrigins []string      `yaml:"allowed_ws_origins"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig points at the Postgres instance backing persistence and
// the event NOTIFY bus.
type DatabaseConfig struct {
	DSNEnv          string        `yaml:"dsn_env"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RateLimitConfig configures the token buckets RateLimiter maintains for
// each dimension (global AI calls, per-user).
type RateLimitConfig struct {
	GlobalRequestsPerSecond float64 `yaml:"global_requests_per_second"`
	GlobalBurst             int     `yaml:"global_burst"`
	PerUserRequestsPerSecond float64 `yaml:"per_user_requests_per_second"`
	PerUserBurst            int     `yaml:"per_user_burst"`
}

// ConcurrencyConfig bounds how many slides may generate at once, across the
// three dimensions ConcurrencyManager acquires in fixed order.
type ConcurrencyConfig struct {
	MaxGlobalSlideSlots int `yaml:"max_global_slide_slots"`
	MaxUserSlideSlots   int `yaml:"max_user_slide_slots"`
	MaxDeckSlideSlots   int `yaml:"max_deck_slide_slots"`
}

// RetryConfig supplies Retrier's per-kind backoff parameters. Kinds not
// present fall back to Default.
type RetryConfig struct {
	Default    BackoffConfig            `yaml:"default"`
	ByKind     map[string]BackoffConfig `yaml:"by_kind"`
	MaxRetries int                      `yaml:"max_retries"`
}

// BackoffConfig is one kind's exponential-backoff-with-jitter parameters.
type BackoffConfig struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// EventsConfig tunes ThrottledEmitter and what happens to a generation when
// its event consumer disconnects.
type EventsConfig struct {
	ThrottleWindow      time.Duration `yaml:"throttle_window"`
	DetachOnDisconnect  bool          `yaml:"detach_on_disconnect"`
}

// AIClientConfig configures the default JSON-over-HTTP AIClient
// implementation. AIClient itself is a named interface — concrete provider
// SDKs are out of scope — so this only configures the generic HTTP
// transport and auth.
type AIClientConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ImageSearchConfig selects and configures ImageService's provider.
type ImageSearchConfig struct {
	Provider   string `yaml:"provider"` // "stub", "http", or "grpc"
	HTTPConfig struct {
		BaseURL   string `yaml:"base_url"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"http"`
	GRPCConfig struct {
		Address string `yaml:"address"`
	} `yaml:"grpc"`
}

// MediaConfig bounds MediaProcessor's upload handling.
type MediaConfig struct {
	MaxUploadBytes   int64    `yaml:"max_upload_bytes"`
	AllowedMIMETypes []string `yaml:"allowed_mime_types"`
	MaxEdgePixels    int      `yaml:"max_edge_pixels"`
	JPEGQuality      int      `yaml:"jpeg_quality"`
	BatchSize        int      `yaml:"batch_size"`
}

// PauseResumeConfig controls snapshot durability.
type PauseResumeConfig struct {
	SnapshotTableName string `yaml:"snapshot_table_name"`
}

// RAGConfig points at the style-guideline knowledge base merged into slide
// generation prompts.
type RAGConfig struct {
	KnowledgeBasePaths []string `yaml:"knowledge_base_paths"`
}

// ThumbnailConfig controls best-effort SVG thumbnail rendering.
type ThumbnailConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// RegistryConfig controls ComponentValidator's strictness.
type RegistryConfig struct {
	StrictMode bool `yaml:"strict_mode"`
}

// ConfigDir returns the directory this configuration was loaded from.
func (c *Config) ConfigDir() string {
	return filepath.Dir(c.configPath)
}
