package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	CatalogBaseURL        string
	CatalogToken          string
	CatalogTimeout        time.Duration
	CatalogRetryAttempts  int
	CatalogRetryBackoff   time.Duration
	CatalogBreakerMinReqs int
	CatalogBreakerRatio   float64
	CatalogBreakerOpenFor time.Duration
	CatalogCacheTTL       time.Duration

	RedisURL string

	Currency  string
	TaxBps    int
	LogFormat string
	LogLevel  string

	MetricsNamespace string
	TracingEnabled   bool
	TracingEndpoint  string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogBaseURL:        strings.TrimSpace(k.String("CATALOG_BASE_URL")),
		CatalogToken:          strings.TrimSpace(k.String("CATALOG_TOKEN")),
		CatalogTimeout:        parseDuration(k.String("CATALOG_TIMEOUT"), "10s"),
		CatalogRetryAttempts:  parseInt(k.String("CATALOG_RETRY_ATTEMPTS"), 3),
		CatalogRetryBackoff:   parseDuration(k.String("CATALOG_RETRY_BACKOFF"), "1s"),
		CatalogBreakerMinReqs: parseInt(k.String("CATALOG_BREAKER_MIN_REQUESTS"), 5),
		CatalogBreakerRatio:   parseFloat(k.String("CATALOG_BREAKER_RATIO"), 0.5),
		CatalogBreakerOpenFor: parseDuration(k.String("CATALOG_BREAKER_OPEN_FOR"), "30s"),
		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "1h"),

		RedisURL: strings.TrimSpace(k.String("REDIS_URL")),

		Currency:  valueOrDefault(k.String("CURRENCY"), "USD"),
		TaxBps:    parseInt(k.String("TAX_RATE_BPS"), 1000),
		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "pos"),
		TracingEnabled:   parseBool(k.String("OBS_TRACING_ENABLED")),
		TracingEndpoint:  strings.TrimSpace(k.String("OBS_TRACING_ENDPOINT")),
		TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING"), 1.0),
	}

	if cfg.CatalogBaseURL == "" {
		return nil, errors.New("CATALOG_BASE_URL is required")
	}
	if cfg.TaxBps < 0 || cfg.TaxBps > 10000 {
		return nil, errors.New("TAX_RATE_BPS must be between 0 and 10000")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed float64
	if _, err := fmt.Sscanf(trimmed, "%g", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
