package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GOOGLE_API_KEY", "goog-test")

	path := writeConfigFile(t, `
server:
  host: 127.0.0.1
  port: 9090
  shutdown_timeout: 5s
database:
  path: /tmp/analyst-test.db
artifacts:
  dir: /tmp/analyst-artifacts
workflow:
  approval_timeout: 1h
  retry:
    initial_interval: 2s
    backoff_coefficient: 1.5
    max_interval: 10s
    max_attempts: 5
providers:
  anthropic:
    api_key: ${ANTHROPIC_API_KEY}
  googleai:
    api_key: ${GOOGLE_API_KEY}
slots:
  - name: planner
    provider: anthropic
    model: claude-sonnet-4-5-20250929
logging:
  level: debug
  format: json
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/analyst-test.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Workflow.ApprovalTimeout)
	assert.Equal(t, 5, cfg.Workflow.Retry.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Workflow.Retry.BackoffCoefficient)
	assert.Equal(t, "sk-ant-test", cfg.Providers.Anthropic.APIKey)
	assert.Equal(t, "goog-test", cfg.Providers.GoogleAI.APIKey)
	require.Len(t, cfg.Slots, 1)
	assert.Equal(t, "planner", cfg.Slots[0].Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 3000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "analyst.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Workflow.ApprovalTimeout)
	assert.Equal(t, time.Second, cfg.Workflow.Retry.InitialInterval)
	assert.Equal(t, 3, cfg.Workflow.Retry.MaxAttempts)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sk-from-env", cfg.Providers.Anthropic.APIKey)
	assert.Empty(t, cfg.Providers.GoogleAI.APIKey)
	assert.Len(t, cfg.Slots, 5)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not: a: mapping\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero approval timeout", func(c *Config) { c.Workflow.ApprovalTimeout = 0 }},
		{"zero retry attempts", func(c *Config) { c.Workflow.Retry.MaxAttempts = 0 }},
		{"shrinking backoff", func(c *Config) { c.Workflow.Retry.BackoffCoefficient = 0.5 }},
		{"inverted intervals", func(c *Config) {
			c.Workflow.Retry.InitialInterval = time.Minute
			c.Workflow.Retry.MaxInterval = time.Second
		}},
		{"empty artifacts dir", func(c *Config) { c.Artifacts.Dir = "" }},
		{"slot without model", func(c *Config) { c.Slots[0].Model = "" }},
		{"duplicate slot", func(c *Config) { c.Slots[1].Name = c.Slots[0].Name }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestEnvInterpolationUnsetResolvesEmpty(t *testing.T) {
	t.Setenv("ANALYST_UNSET_VAR", "")
	path := writeConfigFile(t, `
providers:
  anthropic:
    api_key: ${ANALYST_UNSET_VAR}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers.Anthropic.APIKey)
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	cfg.Server.Host = "::1"
	cfg.Server.Port = 9999
	assert.Equal(t, "[::1]:9999", cfg.ListenAddr())
}
