package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads deckengine.yaml from configPath, expands environment
// variables, merges it onto the built-in defaults, validates the result,
// and returns a ready-to-use Config. It also loads a ".env" file from the
// current directory if one is present, so API keys and the database DSN
// can be supplied without exporting them into the shell.
func Initialize(ctx context.Context, configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := load(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Info("configuration initialized", "config_path", configPath, "port", cfg.Server.Port)
	return cfg, nil
}

func load(_ context.Context, configPath string) (*Config, error) {
	cfg := Default()
	cfg.configPath = configPath

	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no configuration file found, using defaults", "path", configPath)
			return cfg, nil
		}
		return nil, NewLoadError(configPath, err)
	}

	data = ExpandEnv(data)

	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return nil, NewLoadError(configPath, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergo.Merge(cfg, userCfg, mergo.WithOverride); err != nil {
		return nil, NewLoadError(configPath, fmt.Errorf("merging user configuration: %w", err))
	}
	cfg.configPath = configPath

	return cfg, nil
}
