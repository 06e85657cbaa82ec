package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. SCRAPEVIEW_PORT.
const EnvPrefix = "SCRAPEVIEW"

// Keys understood by the viper instance. Each maps to EnvPrefix + "_" +
// upper-cased key.
const (
	KeyBackendURL       = "backend_url"
	KeyBackendAPIKey    = "backend_api_key"
	KeyHost             = "host"
	KeyPort             = "port"
	KeyMode             = "mode"
	KeyAuthEnabled      = "auth_enabled"
	KeyAPIKeys          = "api_keys"
	KeyRateRPS          = "rate_rps"
	KeyRateBurst        = "rate_burst"
	KeyExportDir        = "export_dir"
	KeyExportMaxEntries = "export_max_entries"
	KeyExportTTL        = "export_ttl"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyLogFile          = "log_file"
	KeyWebhookURL       = "webhook_url"
	KeyWebhookSecret    = "webhook_secret"
)

// Config holds all application configuration.
type Config struct {
	Backend   BackendConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Export    ExportConfig
	Log       LogConfig
	Webhook   WebhookConfig
}

// BackendConfig locates the scraping backend.
type BackendConfig struct {
	URL    string // default: "http://127.0.0.1:8000"
	APIKey string // sent as X-API-Key when set
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8090
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication of the HTTP surface.
type AuthConfig struct {
	Enabled bool // default: false
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// ExportConfig controls where artifacts go and how long the HTTP surface
// keeps them for download.
type ExportConfig struct {
	Dir        string        // default: "."
	MaxEntries int           // default: 100
	TTL        time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json", or "console" (alias "text"); default: "json"

	// File rotates logs through lumberjack when set; empty means stderr.
	File string
}

// WebhookConfig enables outcome notifications when URL is set.
type WebhookConfig struct {
	URL    string
	Secret string
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind command-line flags to it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyBackendURL, "http://127.0.0.1:8000")
	v.SetDefault(KeyBackendAPIKey, "")
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8090)
	v.SetDefault(KeyMode, "release")
	v.SetDefault(KeyAuthEnabled, false)
	v.SetDefault(KeyAPIKeys, "")
	v.SetDefault(KeyRateRPS, 5.0)
	v.SetDefault(KeyRateBurst, 10)
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyExportMaxEntries, 100)
	v.SetDefault(KeyExportTTL, time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyWebhookURL, "")
	v.SetDefault(KeyWebhookSecret, "")
	return v
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	return FromViper(NewViper())
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			URL:    strings.TrimRight(v.GetString(KeyBackendURL), "/"),
			APIKey: v.GetString(KeyBackendAPIKey),
		},
		Server: ServerConfig{
			Host: v.GetString(KeyHost),
			Port: v.GetInt(KeyPort),
			Mode: v.GetString(KeyMode),
		},
		Auth: AuthConfig{
			Enabled: v.GetBool(KeyAuthEnabled),
			APIKeys: splitList(v.GetString(KeyAPIKeys)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64(KeyRateRPS),
			Burst:             v.GetInt(KeyRateBurst),
		},
		Export: ExportConfig{
			Dir:        v.GetString(KeyExportDir),
			MaxEntries: v.GetInt(KeyExportMaxEntries),
			TTL:        v.GetDuration(KeyExportTTL),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			File:   v.GetString(KeyLogFile),
		},
		Webhook: WebhookConfig{
			URL:    v.GetString(KeyWebhookURL),
			Secret: v.GetString(KeyWebhookSecret),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("config: backend URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("config: port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Errorf("config: unknown mode %q", c.Server.Mode)
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return errors.New("config: auth enabled but no API keys configured")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit must be positive")
	}
	if c.Export.MaxEntries <= 0 {
		return errors.Errorf("config: export max entries %d must be positive", c.Export.MaxEntries)
	}
	switch c.Log.Format {
	case "json", "console", "text":
	default:
		return errors.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// --- helper functions ---

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
