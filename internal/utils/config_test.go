package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	config, err := LoadDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "text", config.LogFormat)
	assert.True(t, config.Verify)
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `log_level: debug
log_format: json
verify: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	config, err := LoadConfigFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "json", config.LogFormat)
	assert.False(t, config.Verify)
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	config, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", config.LogLevel)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid log level",
			content: "log_level: loud\n",
		},
		{
			name:    "invalid log format",
			content: "log_format: xml\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0o644))

			_, err := LoadConfigFromFile(configPath)
			assert.Error(t, err)
		})
	}
}

func TestConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("SHSTRIP_LOG_LEVEL", "error")

	config, err := LoadDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "error", config.LogLevel)
}
