// Package config provides configuration types and defaults for orgreg.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"orgreg/internal/log"
)

// Config holds all configuration options for orgreg.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	UI      UIConfig      `mapstructure:"ui"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Drafts  DraftsConfig  `mapstructure:"drafts"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// APIConfig holds backend endpoint configuration.
type APIConfig struct {
	// DiscoveryURL is the endpoint queried at startup for the API base URL.
	// Ignored when BaseURL is set directly.
	DiscoveryURL string `mapstructure:"discovery_url"`

	// BaseURL pins the API base URL, skipping discovery entirely.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds every HTTP request. Default: 15s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds credential source configuration.
type SessionConfig struct {
	// CredentialsPath is the JSON credentials file holding the access
	// token and user id. Default: ~/.config/orgreg/credentials.json
	CredentialsPath string `mapstructure:"credentials_path"`

	// Watch reloads credentials when the file changes on disk.
	Watch bool `mapstructure:"watch"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
}

// ThemeConfig holds color overrides. Empty values keep the defaults.
type ThemeConfig struct {
	Accent  string `mapstructure:"accent"`
	Muted   string `mapstructure:"muted"`
	Error   string `mapstructure:"error"`
	Success string `mapstructure:"success"`
}

// DraftsConfig holds local draft persistence configuration.
type DraftsConfig struct {
	// Enabled controls whether form drafts are saved locally. Default: true.
	Enabled *bool `mapstructure:"enabled"`

	// DBPath is the sqlite database file for drafts.
	// Default: ~/.config/orgreg/drafts.db
	DBPath string `mapstructure:"db_path"`
}

// IsEnabled returns whether drafts are enabled (defaults to true if nil).
func (d DraftsConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// CatalogConfig holds reference data caching configuration.
type CatalogConfig struct {
	// TTL bounds how long fetched catalogs (industries, countries, states)
	// are served from cache before refetching. Default: 1h.
	TTL time.Duration `mapstructure:"ttl"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/orgreg/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultCredentialsPath returns ~/.config/orgreg/credentials.json,
// or empty string if the home dir is unavailable.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "orgreg", "credentials.json")
}

// DefaultDraftsDBPath returns ~/.config/orgreg/drafts.db,
// or empty string if the home dir is unavailable.
func DefaultDraftsDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "orgreg", "drafts.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "orgreg", "traces", "traces.jsonl")
}

// ValidateAPI checks endpoint configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateAPI(api APIConfig) error {
	if api.BaseURL == "" && api.DiscoveryURL == "" {
		return fmt.Errorf("api.base_url or api.discovery_url is required")
	}
	for key, raw := range map[string]string{
		"api.base_url":      api.BaseURL,
		"api.discovery_url": api.DiscoveryURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
		}
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %v", api.Timeout)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the full configuration for errors.
func Validate(cfg Config) error {
	if err := ValidateAPI(cfg.API); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	if cfg.Catalog.TTL < 0 {
		return fmt.Errorf("catalog.ttl must not be negative, got %v", cfg.Catalog.TTL)
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			CredentialsPath: DefaultCredentialsPath(),
			Watch:           true,
		},
		UI: UIConfig{
			MarkdownStyle: "dark",
			ShowStatusBar: true,
		},
		Drafts: DraftsConfig{
			DBPath: DefaultDraftsDBPath(),
		},
		Catalog: CatalogConfig{
			TTL: time.Hour,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Orgreg Configuration

# Backend endpoints
api:
  # Discovery endpoint - queried at startup for the API base URL
  # discovery_url: https://config.example.com/client
  #
  # Or pin the base URL directly and skip discovery:
  # base_url: https://api.example.com
  #
  # Request timeout
  timeout: 15s

# Credential source
session:
  # JSON file holding the access token and user id
  # credentials_path: ~/.config/orgreg/credentials.json
  #
  # Reload credentials when the file changes on disk
  watch: true

# UI settings
ui:
  # markdown_style: dark  # Markdown rendering style: "dark" (default) or "light"
  show_status_bar: true

# Theme overrides (hex colors, empty keeps defaults)
# theme:
#   accent: "#54A0FF"
#   muted: "#696969"
#   error: "#FF8787"
#   success: "#73F59F"

# Local form drafts
drafts:
  enabled: true
  # db_path: ~/.config/orgreg/drafts.db

# Reference data (industries, countries, states) caching
catalog:
  ttl: 1h

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/orgreg/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
