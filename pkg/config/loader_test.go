package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sync:
  rpc_url: https://polygon-rpc.com
  window_size: 5000
  retry:
    max_attempts: 3
    initial_backoff: 500ms
database:
  path: /tmp/indexer.db
logging:
  default_level: debug
  component_levels:
    syncer: info
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://polygon-rpc.com", cfg.Sync.RPCURL)
	assert.Equal(t, uint64(5000), cfg.Sync.WindowSize)
	assert.Equal(t, 3, cfg.Sync.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Retry.InitialBackoff.Duration)

	// defaults applied
	assert.Equal(t, uint64(40000000), cfg.Sync.DefaultStartBlock)
	assert.Equal(t, "trade_sync", cfg.Sync.CursorKey)
	assert.Equal(t, "WAL", cfg.Database.JournalMode)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Gamma.BaseURL)
	assert.Equal(t, "info", cfg.Logging.GetComponentLevel("syncer"))
	assert.Equal(t, "debug", cfg.Logging.GetComponentLevel("store"))
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[sync]
rpc_url = "https://polygon-rpc.com"

[database]
path = "/tmp/indexer.db"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), cfg.Sync.WindowSize)
	assert.Equal(t, 5, cfg.Sync.Retry.MaxAttempts)
}

func TestLoadFromJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "sync": {"rpc_url": "https://polygon-rpc.com"},
  "database": {"path": "/tmp/indexer.db"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://polygon-rpc.com", cfg.Sync.RPCURL)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.ini", "sync=1")
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing rpc url",
			mutate:  func(c *Config) { c.Sync.RPCURL = "" },
			wantErr: "sync.rpc_url is required",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path is required",
		},
		{
			name:    "bad exchange address",
			mutate:  func(c *Config) { c.Sync.Exchanges = []string{"0x1234"} },
			wantErr: "not a valid address",
		},
		{
			name:    "invalid finality",
			mutate:  func(c *Config) { c.Sync.Finality = "pending" },
			wantErr: "invalid block finality",
		},
		{
			name: "unknown logging component",
			mutate: func(c *Config) {
				c.Logging = &LoggingConfig{ComponentLevels: map[string]string{"poller": "info"}}
			},
			wantErr: "unknown component",
		},
		{
			name: "invalid component level",
			mutate: func(c *Config) {
				c.Logging = &LoggingConfig{ComponentLevels: map[string]string{"syncer": "loud"}}
			},
			wantErr: "must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Sync:     SyncConfig{RPCURL: "https://polygon-rpc.com"},
				Database: DatabaseConfig{Path: "/tmp/indexer.db"},
			}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
