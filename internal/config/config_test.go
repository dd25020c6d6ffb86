package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 8*time.Minute, cfg.Engine.NudgeAfter)
	assert.Equal(t, 10*time.Minute, cfg.Engine.TimeoutAfter)
	assert.Equal(t, 3, cfg.Engine.MaxInvalidInputs)
	assert.Equal(t, "ACTFAST", cfg.Engine.BypassToken)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, "actbot.yaml", `
log:
  level: debug
engine:
  nudge_after: 2m
  timeout_after: 5m
store:
  backend: file
  path: /tmp/sessions
collaborators:
  backend: sqlite
  pii_fields: ["^email$"]
`)
	t.Setenv("ACTBOT_TIMEOUT_AFTER", "6m")
	t.Setenv("ACTBOT_MASK_PII", "true")
	t.Setenv("ACTBOT_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Minute, cfg.Engine.NudgeAfter)
	assert.Equal(t, 6*time.Minute, cfg.Engine.TimeoutAfter)
	assert.Equal(t, config.StoreFile, cfg.Store.Backend)
	assert.Equal(t, "/tmp/sessions", cfg.Store.Path)
	assert.Equal(t, config.CollaboratorsSQLite, cfg.Collaborators.Backend)
	assert.Equal(t, []string{"^email$"}, cfg.Collaborators.PIIFields)
	assert.True(t, cfg.Collaborators.MaskPII)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "actbot.json", `{"http": {"addr": ":9090"}, "engine": {"max_invalid_inputs": 5}}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Engine.MaxInvalidInputs)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ACTBOT_NUDGE_AFTER", "soon")
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACTBOT_NUDGE_AFTER")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "ACTBOT_TEST_DOTENV=from-file\n")
	t.Setenv("ACTBOT_TEST_DOTENV", "")
	os.Unsetenv("ACTBOT_TEST_DOTENV")

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("ACTBOT_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"nudge after timeout", func(c *config.Config) { c.Engine.NudgeAfter = 20 * time.Minute }, "shorter"},
		{"unknown store", func(c *config.Config) { c.Store.Backend = "mongo" }, "unknown store"},
		{"redis without addr", func(c *config.Config) { c.Store.Backend = config.StoreRedis }, "redis_addr"},
		{"unknown collaborators", func(c *config.Config) { c.Collaborators.Backend = "kafka" }, "unknown collaborators"},
		{"zero lockout", func(c *config.Config) { c.Engine.MaxInvalidInputs = 0 }, "max_invalid_inputs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, config.Default().Validate())
}
