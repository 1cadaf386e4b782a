package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "us-west-2", cfg.ControlPlane.Region)
	assert.Equal(t, "us-west-2", cfg.DataPlane.Region)
	assert.Equal(t, "DEFAULT", cfg.Runtime.DefaultQualifier)
	assert.Equal(t, "aws.browser.v1", cfg.Browser.Identifier)
	assert.Equal(t, "aws.codeinterpreter.v1", cfg.Interpreter.Identifier)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, AgentProvider("echo"), cfg.Agent.Provider)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Addr())
	assert.Equal(t, 15*time.Minute, cfg.Browser.SessionTimeout)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperWithFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
data_plane:
  region: eu-west-1
batch:
  concurrency: 8
serve:
  port: 9999
`), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "eu-west-1", cfg.DataPlane.Region)
	assert.Equal(t, "us-west-2", cfg.ControlPlane.Region, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, 9999, cfg.Serve.Port)
}

func TestSecretsComeFromEnvironment(t *testing.T) {
	t.Setenv("AGENTCORE_BEARER_TOKEN", "env-bearer")
	t.Setenv("AGENTCORE_GEMINI_API_KEY", "env-gemini")
	t.Setenv("AGENTCORE_SERVE_SECRET", "env-secret")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "env-bearer", cfg.ControlPlane.BearerToken)
	assert.Equal(t, "env-bearer", cfg.DataPlane.BearerToken)
	assert.Equal(t, "env-gemini", cfg.Agent.APIKey)
	assert.Equal(t, "env-secret", cfg.Serve.AuthSecret)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "non-positive concurrency",
			mutate:  func(c *Config) { c.Batch.Concurrency = 0 },
			wantErr: "batch.concurrency",
		},
		{
			name:    "non-positive rate",
			mutate:  func(c *Config) { c.Batch.RatePerSecond = -1 },
			wantErr: "batch.rate_per_second",
		},
		{
			name:    "screenshot quality out of range",
			mutate:  func(c *Config) { c.Browser.ScreenshotQuality = 150 },
			wantErr: "screenshot_quality",
		},
		{
			name:    "unknown agent provider",
			mutate:  func(c *Config) { c.Agent.Provider = "markov" },
			wantErr: "agent.provider",
		},
		{
			name: "gemini without model",
			mutate: func(c *Config) {
				c.Agent.Provider = ProviderGemini
				c.Agent.Model = ""
			},
			wantErr: "agent.model",
		},
		{
			name:    "invalid serve port",
			mutate:  func(c *Config) { c.Serve.Port = 70000 },
			wantErr: "serve.port",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDefaultConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, ".agentcore", filepath.Base(dir))
}
