package initialization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snakebot/internal/logger"
)

func TestInitializeReadsConfigPath(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[agent]
model = "test-model"

[log]
dir = "`+filepath.ToSlash(logDir)+`"
`), 0644))
	t.Setenv("CONFIG_PATH", configPath)
	t.Cleanup(logger.CloseLogFile)

	cfg, err := Initialize()
	require.NoError(t, err)

	assert.Equal(t, "test-model", cfg.Agent.Model)
	assert.FileExists(t, filepath.Join(logDir, "error.log"))
	assert.FileExists(t, filepath.Join(logDir, "agent.log"))
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[agent]\nmax_tool_rounds = 0\n"), 0644))
	t.Setenv("CONFIG_PATH", configPath)

	_, err := Initialize()
	assert.Error(t, err)
}
