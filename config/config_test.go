package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8056, cfg.RPC.Port)
	assert.Equal(t, "0.0.0.0", cfg.RPC.Host)
	assert.Equal(t, 1<<20, cfg.RPC.MaxFrameSize)
	assert.Equal(t, 8057, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 300, cfg.Training.JobTimeoutSeconds)
	assert.NotEmpty(t, cfg.Dialog.FallbackMessage)
	assert.NotEmpty(t, cfg.Dialog.ResolvedMessage)
}

func TestLoadConfigFile(t *testing.T) {
	configYAML := []byte(`
rpc:
  port: 9000
log:
  level: debug
dialog:
  fallback_message: "sorry?"
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, configYAML, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.RPC.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sorry?", cfg.Dialog.FallbackMessage)

	// Everything the file does not mention keeps its default.
	assert.Equal(t, 8057, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.RPC.Host)
}
