// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Content source authentication modes.
const (
	AuthNone   = "none"
	AuthBasic  = "basic"
	AuthBearer = "bearer"
)

// MaxPerPage is the largest page size the WordPress REST API accepts.
const MaxPerPage = 100

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"WPB_ENV" envDefault:"development"`
	ServerHost string `env:"WPB_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"WPB_SERVER_PORT" envDefault:"8080"`
	DBPath     string `env:"WPB_DB_PATH" envDefault:"./data/wpbridge.db"`

	// Logging
	LogLevel      string `env:"WPB_LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"WPB_LOG_FILE"`                          // Optional rotated log file
	LogMaxSizeMB  int    `env:"WPB_LOG_MAX_SIZE_MB" envDefault:"50"`   // Rotate after this size
	LogMaxBackups int    `env:"WPB_LOG_MAX_BACKUPS" envDefault:"5"`    // Rotated files to keep

	// Cache configuration
	RedisURL     string `env:"WPB_REDIS_URL"`                         // Optional Redis URL for shared settings cache
	CachePrefix  string `env:"WPB_CACHE_PREFIX" envDefault:"wpb:"`    // Redis key prefix
	CacheTTL     int    `env:"WPB_CACHE_TTL" envDefault:"300"`        // Settings cache TTL in seconds
	CacheMaxSize int    `env:"WPB_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries

	// Content source (defaults; blog.* settings in the admin panel override URL and page size)
	WPBaseURL     string `env:"WPB_WP_BASE_URL" envDefault:"http://localhost/wp-json/wp/v2"`
	WPPerPage     int    `env:"WPB_WP_PER_PAGE" envDefault:"6"`
	WPTimeout     int    `env:"WPB_WP_TIMEOUT" envDefault:"10"` // Seconds per content source call
	WPAuth        string `env:"WPB_WP_AUTH" envDefault:"none"`
	WPUsername    string `env:"WPB_WP_USERNAME"`
	WPAppPassword string `env:"WPB_WP_APP_PASSWORD"`
	WPToken       string `env:"WPB_WP_TOKEN"`
	SanitizeHTML  bool   `env:"WPB_SANITIZE_HTML" envDefault:"false"`

	// Admin API
	AdminTokenHash string `env:"WPB_ADMIN_TOKEN_HASH"`

	// Public API protection
	CORSOrigins    []string `env:"WPB_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	RateLimitRPS   float64  `env:"WPB_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int      `env:"WPB_RATE_LIMIT_BURST" envDefault:"30"`

	// GeoIP configuration
	GeoIPDBPath string `env:"WPB_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Scheduled jobs
	ProbeSchedule      string `env:"WPB_PROBE_SCHEDULE" envDefault:"*/5 * * * *"`
	EventRetentionDays int    `env:"WPB_EVENT_RETENTION_DAYS" envDefault:"30"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SourceTimeout returns the per-call content source timeout.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.WPTimeout) * time.Second
}

// CacheTTLDuration returns the settings cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Env != "development" && c.Env != "production" {
		errs = append(errs, fmt.Errorf("WPB_ENV must be development or production, got %q", c.Env))
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("WPB_SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.WPPerPage < 1 || c.WPPerPage > MaxPerPage {
		errs = append(errs, fmt.Errorf("WPB_WP_PER_PAGE must be between 1 and %d, got %d", MaxPerPage, c.WPPerPage))
	}
	if c.WPTimeout < 1 {
		errs = append(errs, fmt.Errorf("WPB_WP_TIMEOUT must be at least 1 second, got %d", c.WPTimeout))
	}
	if err := ValidateSourceURL(c.WPBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("WPB_WP_BASE_URL: %w", err))
	}

	switch c.WPAuth {
	case AuthNone:
	case AuthBasic:
		if c.WPUsername == "" || c.WPAppPassword == "" {
			errs = append(errs, errors.New("WPB_WP_AUTH=basic requires WPB_WP_USERNAME and WPB_WP_APP_PASSWORD"))
		}
	case AuthBearer:
		if c.WPToken == "" {
			errs = append(errs, errors.New("WPB_WP_AUTH=bearer requires WPB_WP_TOKEN"))
		}
	default:
		errs = append(errs, fmt.Errorf("WPB_WP_AUTH must be none, basic or bearer, got %q", c.WPAuth))
	}

	if !c.IsDevelopment() && c.AdminTokenHash == "" {
		errs = append(errs, errors.New("WPB_ADMIN_TOKEN_HASH is required in production; "+
			"generate one with: wpbridge -hash-token <token>"))
	}
	if c.AdminTokenHash != "" && !strings.HasPrefix(c.AdminTokenHash, "$argon2id$") {
		errs = append(errs, errors.New("WPB_ADMIN_TOKEN_HASH must be an argon2id hash"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("WPB_RATE_LIMIT_RPS and WPB_RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateSourceURL checks that a content source URL is an absolute http(s) URL.
func ValidateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}
