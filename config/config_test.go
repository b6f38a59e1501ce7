package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 1, cfg.Pagination.MinPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, time.Hour, cfg.Provider.TokenTTL)
	assert.Equal(t, time.Minute, cfg.Provider.TokenLeeway)
	assert.Equal(t, "default", cfg.Provider.CallType)
	assert.Equal(t, "auto-on", cfg.Provider.Recording.Mode)
	assert.Equal(t, "1080p", cfg.Provider.Recording.Quality)
	assert.Equal(t, "en", cfg.Provider.Transcription.Language)
	assert.Equal(t, 5, cfg.Reconciler.MaxAttempts)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "parley", cfg.Database.Database)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  listen_addr: ":9090"
database:
  host: db.internal
  port: 5433
provider:
  api_key: key-123
  call_type: livestream
pagination:
  default_page_size: 20
  max_page_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "key-123", cfg.Provider.APIKey)
	assert.Equal(t, "livestream", cfg.Provider.CallType)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 50, cfg.Pagination.MaxPageSize)
	// Untouched values keep defaults.
	assert.Equal(t, "parley", cfg.Database.Database)
	assert.Equal(t, time.Hour, cfg.Provider.TokenTTL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_DB_HOST", "env-host")
	t.Setenv("PARLEY_DB_PORT", "6543")
	t.Setenv("PARLEY_PROVIDER_SECRET", "s3cret")
	t.Setenv("PARLEY_SESSION_SECRET", "sess")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.Provider.APISecret)
	assert.Equal(t, "sess", cfg.Server.SessionSecret)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: from-file\n"), 0o600))
	t.Setenv("PARLEY_DB_HOST", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Host)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "min page size below one",
			mutate:  func(c *Config) { c.Pagination.MinPageSize = 0 },
			wantErr: "min_page_size",
		},
		{
			name:    "max below min",
			mutate:  func(c *Config) { c.Pagination.MaxPageSize = 0 },
			wantErr: "max_page_size",
		},
		{
			name:    "default outside bounds",
			mutate:  func(c *Config) { c.Pagination.DefaultPageSize = 500 },
			wantErr: "default_page_size",
		},
		{
			name:    "zero token ttl",
			mutate:  func(c *Config) { c.Provider.TokenTTL = 0 },
			wantErr: "token_ttl",
		},
		{
			name:    "negative leeway",
			mutate:  func(c *Config) { c.Provider.TokenLeeway = -time.Second },
			wantErr: "token_leeway",
		},
		{
			name:    "zero reconcile attempts",
			mutate:  func(c *Config) { c.Reconciler.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "backoff factor below one",
			mutate:  func(c *Config) { c.Reconciler.BackoffFactor = 0.5 },
			wantErr: "backoff_factor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
