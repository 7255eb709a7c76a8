// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Catalog backend settings.
	Backend string // "static", "rest" or "github"
	Mock    bool   // forces the static backend
	APIURL  string
	APIKey  string

	// Repository search settings, used when Backend is "github".
	GitHubURL     string
	GitHubToken   string
	GitHubPerPage int
	GitHubRPS     float64 // outbound searches per second; 0 disables throttling

	HTTPTimeout time.Duration // outbound request timeout

	// Read path.
	CacheTTL  time.Duration // 0 keeps entries until revalidated
	CacheIdle time.Duration // unread entries are evicted after this; 0 keeps them
	PageSize  int

	// Inbound rate limiting, per client IP. RateLimitRPS 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string
	OTELInsecure bool

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed variable is reported, not just the first.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var cfg Config
	var err error

	cfg.Port, err = envInt("AITOOLS_PORT", 8080)
	collect(err)
	cfg.ReadTimeout, err = envDuration("AITOOLS_READ_TIMEOUT", 15*time.Second)
	collect(err)
	cfg.WriteTimeout, err = envDuration("AITOOLS_WRITE_TIMEOUT", 30*time.Second)
	collect(err)
	cfg.ShutdownTimeout, err = envDuration("AITOOLS_SHUTDOWN_TIMEOUT", 10*time.Second)
	collect(err)

	cfg.Backend = strings.ToLower(envStr("AITOOLS_BACKEND", "rest"))
	cfg.Mock, err = envBool("AITOOLS_MOCK", false)
	collect(err)
	cfg.APIURL = envStr("AITOOLS_API_URL", "https://api.example.com")
	cfg.APIKey = envStr("AITOOLS_API_KEY", "")

	cfg.GitHubURL = envStr("GITHUB_API_URL", "https://api.github.com")
	cfg.GitHubToken = envStr("GITHUB_TOKEN", "")
	cfg.GitHubPerPage, err = envInt("AITOOLS_GITHUB_PER_PAGE", 30)
	collect(err)
	cfg.GitHubRPS, err = envFloat("AITOOLS_GITHUB_RPS", 0.5)
	collect(err)

	cfg.HTTPTimeout, err = envDuration("AITOOLS_HTTP_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.CacheTTL, err = envDuration("AITOOLS_CACHE_TTL", time.Minute)
	collect(err)
	cfg.CacheIdle, err = envDuration("AITOOLS_CACHE_IDLE", 10*time.Minute)
	collect(err)
	cfg.PageSize, err = envInt("AITOOLS_PAGE_SIZE", 9)
	collect(err)

	cfg.RateLimitRPS, err = envFloat("AITOOLS_RATE_LIMIT_RPS", 10)
	collect(err)
	cfg.RateLimitBurst, err = envInt("AITOOLS_RATE_LIMIT_BURST", 20)
	collect(err)

	cfg.OTELEndpoint = envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.ServiceName = envStr("OTEL_SERVICE_NAME", "aitools")
	cfg.OTELInsecure, err = envBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	collect(err)

	cfg.LogLevel = strings.ToLower(envStr("AITOOLS_LOG_LEVEL", "info"))

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("AITOOLS_PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.Backend {
	case "static", "rest", "github":
	default:
		errs = append(errs, fmt.Errorf("AITOOLS_BACKEND must be static, rest or github, got %q", c.Backend))
	}
	if !c.Mock {
		if c.Backend == "rest" {
			errs = append(errs, checkURL("AITOOLS_API_URL", c.APIURL))
		}
		if c.Backend == "github" {
			errs = append(errs, checkURL("GITHUB_API_URL", c.GitHubURL))
		}
	}
	if c.GitHubPerPage < 1 || c.GitHubPerPage > 100 {
		errs = append(errs, fmt.Errorf("AITOOLS_GITHUB_PER_PAGE must be between 1 and 100, got %d", c.GitHubPerPage))
	}
	if c.GitHubRPS < 0 {
		errs = append(errs, fmt.Errorf("AITOOLS_GITHUB_RPS must not be negative"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("AITOOLS_HTTP_TIMEOUT must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("AITOOLS_CACHE_TTL must not be negative"))
	}
	if c.CacheIdle < 0 {
		errs = append(errs, fmt.Errorf("AITOOLS_CACHE_IDLE must not be negative"))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("AITOOLS_PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("AITOOLS_RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("AITOOLS_RATE_LIMIT_BURST must be positive when rate limiting is on"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("AITOOLS_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s=%q is not an http(s) URL", key, raw)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
