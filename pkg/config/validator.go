package config

import "fmt"

// Validate checks a loaded Config for internally-consistent, usable values.
// It never adjusts a value silently — callers see a clear error and must
// fix the configuration file or environment rather than run on a guess.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return NewValidationError("server.port", fmt.Errorf("%w: %d", ErrInvalidValue, cfg.Server.Port))
	}
	if cfg.Database.DSNEnv == "" {
		return NewValidationError("database.dsn_env", ErrMissingRequiredField)
	}
	if cfg.Concurrency.MaxGlobalSlideSlots <= 0 {
		return NewValidationError("concurrency.max_global_slide_slots", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if cfg.Concurrency.MaxUserSlideSlots > cfg.Concurrency.MaxGlobalSlideSlots {
		return NewValidationError("concurrency.max_user_slide_slots",
			fmt.Errorf("%w: cannot exceed max_global_slide_slots", ErrInvalidValue))
	}
	if cfg.Concurrency.MaxDeckSlideSlots > cfg.Concurrency.MaxUserSlideSlots {
		return NewValidationError("concurrency.max_deck_slide_slots",
			fmt.Errorf("%w: cannot exceed max_user_slide_slots", ErrInvalidValue))
	}
	if cfg.Retry.MaxRetries < 0 {
		return NewValidationError("retry.max_retries", fmt.Errorf("%w: must be non-negative", ErrInvalidValue))
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		return NewValidationError("media.max_upload_bytes", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if len(cfg.Media.AllowedMIMETypes) == 0 {
		return NewValidationError("media.allowed_mime_types", ErrMissingRequiredField)
	}
	switch cfg.ImageSearch.Provider {
	case "stub", "http", "grpc":
	default:
		return NewValidationError("image_search.provider",
			fmt.Errorf("%w: must be one of stub, http, grpc", ErrInvalidValue))
	}
	if cfg.ImageSearch.Provider == "grpc" && cfg.ImageSearch.GRPCConfig.Address == "" {
		return NewValidationError("image_search.grpc.address", ErrMissingRequiredField)
	}
	if cfg.ImageSearch.Provider == "http" && cfg.ImageSearch.HTTPConfig.BaseURL == "" {
		return NewValidationError("image_search.http.base_url", ErrMissingRequiredField)
	}
	return nil
}
