package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoader_Load_MissingFile tests that defaults apply without a file
func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Logging.File)
}

// TestLoader_Load_FromFile tests reading values from a config file
func TestLoader_Load_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aitest.json")
	content := `{
		"server": {"host": "127.0.0.1", "port": 9100},
		"browser": {"headless": false, "use_existing_browser": true, "cdp_url": "ws://dev:9222"},
		"retention": {"ttl_hours": 2},
		"logging": {"level": "debug"},
		"data_dir": "` + dir + `"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.UseExistingBrowser)
	assert.Equal(t, "ws://dev:9222", cfg.Browser.CDPURL)
	assert.Equal(t, 2, cfg.Retention.TTLHours)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "aitest.log"), cfg.Logging.File)
}

// TestLoader_Load_InvalidFile tests malformed JSON
func TestLoader_Load_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aitest.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoader_Load_InvalidValues tests that validation runs after loading
func TestLoader_Load_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aitest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": -1}}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoader_GetConfigPath tests path resolution
func TestLoader_GetConfigPath(t *testing.T) {
	loader := NewLoader("/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", loader.GetConfigPath())

	loader = NewLoader("")
	assert.Contains(t, loader.GetConfigPath(), ".aitest")
}
