package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.True(t, cfg.Session.Watch)
	require.Equal(t, "dark", cfg.UI.MarkdownStyle)
	require.True(t, cfg.Drafts.IsEnabled())
	require.Equal(t, time.Hour, cfg.Catalog.TTL)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
}

func TestValidateAPI_RequiresEndpoint(t *testing.T) {
	err := ValidateAPI(APIConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api.base_url or api.discovery_url is required")
}

func TestValidateAPI_BaseURLOnly(t *testing.T) {
	err := ValidateAPI(APIConfig{BaseURL: "https://api.example.com"})
	require.NoError(t, err)
}

func TestValidateAPI_DiscoveryURLOnly(t *testing.T) {
	err := ValidateAPI(APIConfig{DiscoveryURL: "https://config.example.com/client"})
	require.NoError(t, err)
}

func TestValidateAPI_RejectsNonHTTPScheme(t *testing.T) {
	err := ValidateAPI(APIConfig{BaseURL: "ftp://api.example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http(s)")
}

func TestValidateAPI_NegativeTimeout(t *testing.T) {
	err := ValidateAPI(APIConfig{BaseURL: "https://api.example.com", Timeout: -time.Second})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timeout")
}

func TestValidateTracing_Defaults(t *testing.T) {
	err := ValidateTracing(Defaults().Tracing)
	require.NoError(t, err)
}

func TestValidateTracing_InvalidSampleRate(t *testing.T) {
	err := ValidateTracing(TracingConfig{SampleRate: 1.5})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")
}

func TestValidateTracing_InvalidExporter(t *testing.T) {
	err := ValidateTracing(TracingConfig{Exporter: "jaeger", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exporter")
}

func TestValidateTracing_FileExporterRequiresPath(t *testing.T) {
	err := ValidateTracing(TracingConfig{Enabled: true, Exporter: "file", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path is required")
}

func TestValidateTracing_OTLPRequiresEndpoint(t *testing.T) {
	err := ValidateTracing(TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "otlp_endpoint is required")
}

func TestDraftsConfig_IsEnabled(t *testing.T) {
	require.True(t, DraftsConfig{}.IsEnabled(), "nil defaults to enabled")

	disabled := false
	require.False(t, DraftsConfig{Enabled: &disabled}.IsEnabled())

	enabled := true
	require.True(t, DraftsConfig{Enabled: &enabled}.IsEnabled())
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yml")

	err := WriteDefaultConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "api:")
	require.Contains(t, string(data), "drafts:")
}

// The generated template must round-trip through viper into Config.
func TestDefaultConfigTemplate_ParsesWithViper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.True(t, cfg.Session.Watch)
	require.Equal(t, time.Hour, cfg.Catalog.TTL)
}
