// Package config provides configuration management for the parley backend.
// It supports loading configuration from YAML files with environment variable
// overrides for deployment settings and secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100

	DefaultCallType         = "default"
	DefaultTokenTTL         = time.Hour
	DefaultTokenLeeway      = time.Minute
	DefaultProviderTimeout  = 10 * time.Second
	DefaultReconcileEvery   = 30 * time.Second
	DefaultStuckAfter       = 5 * time.Minute
	DefaultProvisionRetries = 5
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// ShutdownTimeout bounds graceful shutdown on SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SessionSecret verifies inbound session tokens. Override with
	// PARLEY_SESSION_SECRET.
	SessionSecret string `yaml:"session_secret"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`

	// MigrationsDir is the directory containing .sql migration files.
	MigrationsDir string `yaml:"migrations_dir"`
}

// RedisConfig holds Redis connection settings for the reconcile queue.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RecordingConfig holds provider-side recording settings applied to new calls.
type RecordingConfig struct {
	Mode    string `yaml:"mode"`
	Quality string `yaml:"quality"`
}

// TranscriptionConfig holds provider-side transcription settings applied to new calls.
type TranscriptionConfig struct {
	Language          string `yaml:"language"`
	Mode              string `yaml:"mode"`
	ClosedCaptionMode string `yaml:"closed_caption_mode"`
}

// ProviderConfig holds video provider client settings.
type ProviderConfig struct {
	// BaseURL is the provider REST endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey identifies this application to the provider.
	APIKey string `yaml:"api_key"`

	// APISecret signs user tokens. Override with PARLEY_PROVIDER_SECRET or
	// store via `parley credentials set`.
	APISecret string `yaml:"api_secret"`

	// CallType is the provider call type used for meeting calls.
	CallType string `yaml:"call_type"`

	// TokenTTL is the validity window of generated user tokens.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// TokenLeeway backdates the issued-at claim to tolerate clock skew
	// between this service and the provider.
	TokenLeeway time.Duration `yaml:"token_leeway"`

	// RequestTimeout bounds every provider HTTP call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Recording     RecordingConfig     `yaml:"recording"`
	Transcription TranscriptionConfig `yaml:"transcription"`
}

// PaginationConfig holds list-endpoint page bounds.
type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MinPageSize     int `yaml:"min_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// ReconcilerConfig holds provisioning reconciler settings.
type ReconcilerConfig struct {
	// Interval between scans of the retry queue and stuck rows.
	Interval time.Duration `yaml:"interval"`

	// StuckAfter is how long a meeting may stay pending before the DB scan
	// picks it up even without a queue entry.
	StuckAfter time.Duration `yaml:"stuck_after"`

	// MaxAttempts bounds provisioning retries before a meeting is marked failed.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffFactor multiplies the backoff after each attempt.
	BackoffFactor float64 `yaml:"backoff_factor"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// Config is the root configuration for the parley backend.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Provider   ProviderConfig   `yaml:"provider"`
	Pagination PaginationConfig `yaml:"pagination"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      DefaultListenAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "parley",
			User:          "parley",
			SSLMode:       "disable",
			MaxConns:      25,
			MinConns:      5,
			MigrationsDir: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Provider: ProviderConfig{
			CallType:       DefaultCallType,
			TokenTTL:       DefaultTokenTTL,
			TokenLeeway:    DefaultTokenLeeway,
			RequestTimeout: DefaultProviderTimeout,
			Recording: RecordingConfig{
				Mode:    "auto-on",
				Quality: "1080p",
			},
			Transcription: TranscriptionConfig{
				Language:          "en",
				Mode:              "auto-on",
				ClosedCaptionMode: "auto-on",
			},
		},
		Pagination: PaginationConfig{
			DefaultPageSize: DefaultPageSize,
			MinPageSize:     MinPageSize,
			MaxPageSize:     MaxPageSize,
		},
		Reconciler: ReconcilerConfig{
			Interval:       DefaultReconcileEvery,
			StuckAfter:     DefaultStuckAfter,
			MaxAttempts:    DefaultProvisionRetries,
			InitialBackoff: time.Second,
			MaxBackoff:     5 * time.Minute,
			BackoffFactor:  2.0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},
	}
}

// Load reads configuration from the given YAML file, then applies environment
// overrides. A missing file is not an error; defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables. Secrets are expected
// to arrive this way in production deployments.
func (c *Config) applyEnv() {
	if v := os.Getenv("PARLEY_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("PARLEY_SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("PARLEY_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("PARLEY_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Database.Port = p
		}
	}
	if v := os.Getenv("PARLEY_DB_NAME"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("PARLEY_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("PARLEY_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("PARLEY_DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("PARLEY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PARLEY_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("PARLEY_PROVIDER_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("PARLEY_PROVIDER_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PARLEY_PROVIDER_SECRET"); v != "" {
		c.Provider.APISecret = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Pagination.MinPageSize < 1 {
		return fmt.Errorf("min_page_size must be >= 1, got %d", c.Pagination.MinPageSize)
	}
	if c.Pagination.MaxPageSize < c.Pagination.MinPageSize {
		return fmt.Errorf("max_page_size (%d) must be >= min_page_size (%d)",
			c.Pagination.MaxPageSize, c.Pagination.MinPageSize)
	}
	if c.Pagination.DefaultPageSize < c.Pagination.MinPageSize ||
		c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) must be within [%d, %d]",
			c.Pagination.DefaultPageSize, c.Pagination.MinPageSize, c.Pagination.MaxPageSize)
	}
	if c.Provider.TokenTTL <= 0 {
		return fmt.Errorf("provider token_ttl must be positive, got %s", c.Provider.TokenTTL)
	}
	if c.Provider.TokenLeeway < 0 {
		return fmt.Errorf("provider token_leeway must not be negative, got %s", c.Provider.TokenLeeway)
	}
	if c.Reconciler.MaxAttempts < 1 {
		return fmt.Errorf("reconciler max_attempts must be >= 1, got %d", c.Reconciler.MaxAttempts)
	}
	if c.Reconciler.BackoffFactor < 1.0 {
		return fmt.Errorf("reconciler backoff_factor must be >= 1.0, got %g", c.Reconciler.BackoffFactor)
	}
	return nil
}
