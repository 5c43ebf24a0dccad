package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults without config file", func(t *testing.T) {
		t.Setenv("PORT", "")
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, TransportStdio, cfg.Server.Transport)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, "https://html.duckduckgo.com/html/", cfg.Search.Endpoint)
		assert.Equal(t, 15000, cfg.Search.TimeoutMS)
		assert.Equal(t, 5, cfg.Search.DefaultLimit)
		assert.Equal(t, 10, cfg.Search.MaxLimit)
		assert.Equal(t, 200000, cfg.Fetch.MaxBytes)
		assert.Equal(t, 15000, cfg.Fetch.TimeoutMS)
		assert.Equal(t, 5, cfg.Fetch.MaxRedirects)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("File values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := []byte(`
server:
  transport: sse
  port: 9090
search:
  timeout_ms: 5000
fetch:
  max_bytes: 1024
  max_redirects: 2
`)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, TransportSSE, cfg.Server.Transport)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 5000, cfg.Search.TimeoutMS)
		assert.Equal(t, 1024, cfg.Fetch.MaxBytes)
		assert.Equal(t, 2, cfg.Fetch.MaxRedirects)
		// untouched keys keep their defaults
		assert.Equal(t, 15000, cfg.Fetch.TimeoutMS)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fetch:\n  max_bytes: 1024\n"), 0o600))
		t.Setenv("WSMCP_FETCH_MAX_BYTES", "2048")
		t.Setenv("WSMCP_LOGGING_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 2048, cfg.Fetch.MaxBytes)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("PORT is honoured", func(t *testing.T) {
		t.Setenv("PORT", "7001")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 7001, cfg.Server.Port)
	})

	t.Run("Malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("Search max_limit above ceiling", func(t *testing.T) {
		t.Setenv("WSMCP_SEARCH_MAX_LIMIT", "50")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "search.max_limit")
	})

	t.Run("Unknown transport", func(t *testing.T) {
		t.Setenv("WSMCP_SERVER_TRANSPORT", "carrier-pigeon")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "server.transport")
	})
}
