package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[agent]
model = "gpt-4o"
max_tool_rounds = 4
api_timeout = "30s"

[game]
nav_delay = "250ms"

[hub]
addr = "127.0.0.1:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Agent.Model)
	assert.Equal(t, 4, cfg.Agent.MaxToolRounds)
	assert.Equal(t, 30*time.Second, cfg.Agent.APITimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.NavDelay.Duration)
	assert.Equal(t, "127.0.0.1:9000", cfg.Hub.Addr)
	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Game.StartSettle.Duration)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Agent.APIKeyEnv)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[game]\nnav_delay = \"soon\"\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero tool rounds", func(c *Config) { c.Agent.MaxToolRounds = 0 }, false},
		{"no port", func(c *Config) { c.Hub.Addr = "localhost" }, false},
		{"negative nav delay", func(c *Config) { c.Game.NavDelay.Duration = -time.Second }, false},
		{"zero nav delay", func(c *Config) { c.Game.NavDelay.Duration = 0 }, true},
		{"no burst", func(c *Config) { c.Hub.FrameBurst = 0 }, false},
		{"empty model", func(c *Config) { c.Agent.Model = "" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAPIKeyFromConfiguredEnv(t *testing.T) {
	t.Setenv("SNAKEBOT_TEST_KEY", "sk-test")
	cfg := DefaultConfig()
	cfg.Agent.APIKeyEnv = "SNAKEBOT_TEST_KEY"
	assert.Equal(t, "sk-test", cfg.APIKey())
}
