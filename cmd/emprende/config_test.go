package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data/emprende.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Listing.PageSize)
	assert.Equal(t, 60, cfg.Slug.MaxNameLength)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.Analytics.FlushInterval)
	assert.Equal(t, 100, cfg.Analytics.BatchSize)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "506", cfg.Contact.CountryCode)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  shutdown_timeout: 10s

database:
  dsn: "/tmp/emprende.db"

log:
  level: "debug"
  format: "text"

listing:
  page_size: 24

cache:
  ttl: 1m
  redis_url: "redis://localhost:6379/0"

cors:
  allowed_origins:
    - "https://emprende.cr"
    - "http://localhost:5173"

site:
  base_url: "https://emprende.cr"

contact:
  message: "Hola, vi {name} en Emprende"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/emprende.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 24, cfg.Listing.PageSize)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, []string{"https://emprende.cr", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://emprende.cr", cfg.Site.BaseURL)
	assert.Equal(t, "Hola, vi {name} en Emprende", cfg.Contact.Message)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("EMPRENDE_SERVER_PORT", "3000")
	t.Setenv("EMPRENDE_DATABASE_DSN", "/custom/path.db")
	t.Setenv("EMPRENDE_LOG_LEVEL", "warn")
	t.Setenv("EMPRENDE_LISTING_PAGE_SIZE", "20")
	t.Setenv("EMPRENDE_SLUG_MAX_NAME_LENGTH", "40")
	t.Setenv("EMPRENDE_CONTACT_COUNTRY_CODE", "1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 20, cfg.Listing.PageSize)
	assert.Equal(t, 40, cfg.Slug.MaxNameLength)
	assert.Equal(t, "1", cfg.Contact.CountryCode)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"page size zero", "EMPRENDE_LISTING_PAGE_SIZE", "0"},
		{"page size over max", "EMPRENDE_LISTING_PAGE_SIZE", "101"},
		{"negative name length", "EMPRENDE_SLUG_MAX_NAME_LENGTH", "-1"},
		{"zero batch", "EMPRENDE_ANALYTICS_BATCH_SIZE", "0"},
		{"country code with plus", "EMPRENDE_CONTACT_COUNTRY_CODE", "+506"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level  string
		format string
	}{
		{"debug", "json"},
		{"info", "text"},
		{"warn", "json"},
		{"error", "json"},
		{"invalid", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: tt.format}})
			assert.NotNil(t, logger)
		})
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}

	assert.Equal(t, "localhost:8080", cfg.Server.Address())
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"EMPRENDE_SERVER_HOST",
		"EMPRENDE_SERVER_PORT",
		"EMPRENDE_DATABASE_DSN",
		"EMPRENDE_LOG_LEVEL",
		"EMPRENDE_LOG_FORMAT",
		"EMPRENDE_LISTING_PAGE_SIZE",
		"EMPRENDE_SLUG_MAX_NAME_LENGTH",
		"EMPRENDE_CACHE_REDIS_URL",
		"EMPRENDE_ANALYTICS_BATCH_SIZE",
		"EMPRENDE_CONTACT_COUNTRY_CODE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
