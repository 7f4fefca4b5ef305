package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Slug      SlugConfig      `mapstructure:"slug"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Site      SiteConfig      `mapstructure:"site"`
	Contact   ContactConfig   `mapstructure:"contact"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ListingConfig holds listing page configuration.
type ListingConfig struct {
	// PageSize is the page size used when a request names no limit.
	PageSize int `mapstructure:"page_size"`
}

// SlugConfig holds public URL configuration.
type SlugConfig struct {
	// MaxNameLength caps the name part of a slug. Changing it changes every
	// generated URL; old URLs keep resolving through their embedded id.
	MaxNameLength int `mapstructure:"max_name_length"`
}

// CacheConfig holds slug candidate cache configuration.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`

	// RedisURL selects a shared Redis cache, e.g. "redis://localhost:6379/0".
	// Empty means an in-process cache.
	RedisURL string `mapstructure:"redis_url"`
}

// AnalyticsConfig holds contact counter aggregation configuration.
type AnalyticsConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	RecordTimeout time.Duration `mapstructure:"record_timeout"`
}

// CORSConfig holds cross-origin configuration for the browser front-end.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SiteConfig holds public site configuration.
type SiteConfig struct {
	// BaseURL prefixes the absolute url of every detail page.
	BaseURL string `mapstructure:"base_url"`
}

// ContactConfig holds WhatsApp contact link configuration.
type ContactConfig struct {
	CountryCode string `mapstructure:"country_code"`

	// Message is the prefilled WhatsApp text. "{name}" is replaced with the
	// business or item name.
	Message string `mapstructure:"message"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/emprende.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("listing.page_size", 50)
	v.SetDefault("slug.max_name_length", 60)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("analytics.flush_interval", "30s")
	v.SetDefault("analytics.batch_size", 100)
	v.SetDefault("analytics.record_timeout", "5s")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("contact.country_code", "506")
	v.SetDefault("contact.message", "")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults; a broken one does not.
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("EMPRENDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Listing.PageSize < 1 || c.Listing.PageSize > 100 {
		return fmt.Errorf("listing.page_size must be between 1 and 100, got %d", c.Listing.PageSize)
	}
	if c.Slug.MaxNameLength < 0 {
		return fmt.Errorf("slug.max_name_length must not be negative, got %d", c.Slug.MaxNameLength)
	}
	if c.Analytics.BatchSize < 1 {
		return fmt.Errorf("analytics.batch_size must be positive, got %d", c.Analytics.BatchSize)
	}
	if strings.Trim(c.Contact.CountryCode, "0123456789") != "" {
		return fmt.Errorf("contact.country_code must be digits, got %q", c.Contact.CountryCode)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
