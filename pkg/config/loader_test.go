package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Initialize(context.Background(), filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestInitialize_UserYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deckengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
concurrency:
  max_global_slide_slots: 50
  max_user_slide_slots: 10
  max_deck_slide_slots: 2
`), 0o644))

	cfg, err := Initialize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Concurrency.MaxGlobalSlideSlots)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset fields should keep the default")
}

func TestInitialize_ExpandsEnvVars(t *testing.T) {
	t.Setenv("DECKENGINE_DB_ENV_NAME", "CUSTOM_DATABASE_URL")
	dir := t.TempDir()
	path := filepath.Join(dir, "deckengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn_env: ${DECKENGINE_DB_ENV_NAME}
`), 0o644))

	cfg, err := Initialize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM_DATABASE_URL", cfg.Database.DSNEnv)
}

func TestInitialize_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deckengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 70000
`), 0o644))

	_, err := Initialize(context.Background(), path)
	assert.Error(t, err)
}
