package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/TabSum/internal/config"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tabsum.yaml")

	out, err := executeCommand(t, "--no-emoji", "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Configuration file created at: "+path)
	assert.Contains(t, out, "full configuration")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.SampleConfig(), string(data))

	_, err = executeCommand(t, "config", "init", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = executeCommand(t, "config", "init", "--path", path, "--minimal", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "minimal configuration")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.MinimalSampleConfig(), string(data))
}

func TestConfigValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabsum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: \"http://analysis.local:9000\"\n  timeout: 30s\nui:\n  theme: minimal\n"), 0o600))

	out, err := executeCommand(t, "--no-emoji", "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Configuration is valid")
	assert.Contains(t, out, "Backend: http://analysis.local:9000")
	assert.Contains(t, out, "Timeout: 30s")
	assert.Contains(t, out, "Theme: minimal")
	assert.Contains(t, out, "Output Format: text")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabsum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: neon\n"), 0o600))

	out, err := executeCommand(t, "--no-emoji", "--config", path, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "[ERR] Configuration validation failed")
	assert.Contains(t, err.Error(), "invalid theme: neon")
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabsum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("charts:\n  export_dir: /tmp/plots\n"), 0o600))

	out, err := executeCommand(t, "--config", path, "config", "show", "--format", "json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "/tmp/plots", cfg.Charts.ExportDir)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)

	out, err = executeCommand(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "export_dir: /tmp/plots")

	_, err = executeCommand(t, "--config", path, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	out, err := executeCommand(t, "--no-emoji", "config", "path")
	require.NoError(t, err)

	for _, path := range config.GetConfigPaths() {
		assert.Contains(t, out, path)
	}
	assert.Contains(t, out, "Priority: Highest")
	assert.Contains(t, out, "TABSUM_ prefix")
}
