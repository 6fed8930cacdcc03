package config

import "time"

// Default returns the built-in configuration used when a field is left
// unset in the user's YAML. Initialize merges user config onto this with
// mergo.WithOverride so zero-value user fields never clobber a default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSNEnv:          "DATABASE_URL",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			GlobalRequestsPerSecond: 5,
			GlobalBurst:             10,
			PerUserRequestsPerSecond: 1,
			PerUserBurst:            3,
		},
		Concurrency: ConcurrencyConfig{
			MaxGlobalSlideSlots: 20,
			MaxUserSlideSlots:   6,
			MaxDeckSlideSlots:   4,
		},
		Retry: RetryConfig{
			Default: BackoffConfig{
				BaseDelay: 1 * time.Second,
				MaxDelay:  10 * time.Second,
			},
			ByKind: map[string]BackoffConfig{
				"ai_overloaded": {BaseDelay: 10 * time.Second, MaxDelay: 120 * time.Second},
				"ai_rate_limit": {BaseDelay: 10 * time.Second, MaxDelay: 60 * time.Second},
				"ai_timeout":    {BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
			},
			MaxRetries: 3,
		},
		Events: EventsConfig{
			ThrottleWindow:     100 * time.Millisecond,
			DetachOnDisconnect: false,
		},
		AIClient: AIClientConfig{
			APIKeyEnv: "AI_PROVIDER_API_KEY",
			Timeout:   60 * time.Second,
		},
		ImageSearch: ImageSearchConfig{
			Provider: "stub",
		},
		Media: MediaConfig{
			MaxUploadBytes:   10 * 1024 * 1024,
			AllowedMIMETypes: []string{"image/png", "image/jpeg", "image/webp", "image/gif"},
			MaxEdgePixels:    2048,
			JPEGQuality:      85,
			BatchSize:        5,
		},
		PauseResume: PauseResumeConfig{
			SnapshotTableName: "generation_snapshots",
		},
		Thumbnail: ThumbnailConfig{
			Enabled: true,
			Width:   320,
			Height:  180,
		},
		Registry: RegistryConfig{
			StrictMode: false,
		},
	}
}
