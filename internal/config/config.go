package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"disputelens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Backend BackendConfig
	Server  ServerConfig
	Store   StoreConfig
	UI      UIConfig
	Export  ExportConfig
	Tracing TracingConfig
	Log     LogConfig
}

// BackendConfig holds the location of the analysis server
type BackendConfig struct {
	URL string
	// Timeout of zero means requests wait as long as the caller's context allows.
	Timeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// StoreConfig holds the session store DSN. postgres:// and postgresql:// use
// lib/pq; anything else is treated as a sqlite3 file path.
type StoreConfig struct {
	DSN string
}

// UIConfig holds timings shared by the web UI and the CLI
type UIConfig struct {
	RedirectDelay time.Duration
	AlertTTL      time.Duration
	// ClientIdleTTL is how long the web UI keeps the page state of a client
	// that sends no requests.
	ClientIdleTTL time.Duration
}

// ExportConfig holds where the CLI writes exported files
type ExportConfig struct {
	Dir string
}

// TracingConfig toggles otelhttp instrumentation of the backend client
type TracingConfig struct {
	Enabled bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	backendConfig, err := loadBackendConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load backend configuration")
	}
	config.Backend = *backendConfig

	config.Server = ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
	config.Store = StoreConfig{
		DSN: getEnvOrDefault("SESSION_STORE_DSN", "disputelens.db"),
	}
	config.UI = UIConfig{
		RedirectDelay: getEnvDurationOrDefault("REDIRECT_DELAY", 3*time.Second),
		AlertTTL:      getEnvDurationOrDefault("ALERT_TTL", 5*time.Second),
		ClientIdleTTL: getEnvDurationOrDefault("CLIENT_IDLE_TTL", 2*time.Hour),
	}
	config.Export = ExportConfig{
		Dir: getEnvOrDefault("EXPORT_DIR", "."),
	}
	config.Tracing = TracingConfig{
		Enabled: getEnvBoolOrDefault("OTEL_ENABLED", false),
	}
	config.Log = LogConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadBackendConfig() (*BackendConfig, error) {
	raw := os.Getenv("BACKEND_URL")
	if raw == "" {
		return nil, errors.ConfigInvalid("BACKEND_URL is required")
	}

	return &BackendConfig{
		URL:     strings.TrimRight(raw, "/"),
		Timeout: getEnvDurationOrDefault("BACKEND_TIMEOUT", 0),
	}, nil
}

func validateConfig(config *Config) error {
	u, err := url.Parse(config.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigInvalid("BACKEND_URL must be an absolute http(s) URL")
	}
	if config.Backend.Timeout < 0 {
		return errors.ConfigInvalid("BACKEND_TIMEOUT cannot be negative")
	}
	if config.UI.RedirectDelay < 0 || config.UI.AlertTTL <= 0 {
		return errors.ConfigInvalid("REDIRECT_DELAY and ALERT_TTL must be positive")
	}
	if config.UI.ClientIdleTTL <= 0 {
		return errors.ConfigInvalid("CLIENT_IDLE_TTL must be positive")
	}
	if config.Store.DSN == "" {
		return errors.ConfigInvalid("SESSION_STORE_DSN cannot be empty")
	}
	return nil
}

// IsPostgres reports whether the store DSN selects the postgres driver.
func (s StoreConfig) IsPostgres() bool {
	return strings.HasPrefix(s.DSN, "postgres://") || strings.HasPrefix(s.DSN, "postgresql://")
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
