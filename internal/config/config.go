package config

import (
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
	AppEnv               string
	Port                 string
	CatalogPath          string
	RedisURL             string
	IdempotencyTTL       time.Duration
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
	RateLimit            string
	CORSAllowedOrigins   []string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                 valueOrDefault(k.String("PORT"), "8080"),
		CatalogPath:          valueOrDefault(k.String("CATALOG_PATH"), "config/catalog.json"),
		RedisURL:             strings.TrimSpace(k.String("REDIS_URL")),
		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		SessionIdleTTL:       parseDuration(k.String("SESSION_IDLE_TTL"), "30m"),
		SessionSweepInterval: parseDuration(k.String("SESSION_SWEEP_INTERVAL"), "1m"),
		RateLimit:            strings.TrimSpace(valueOrDefault(k.String("RATE_LIMIT"), "600-M")),
		CORSAllowedOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
	}
	if strings.EqualFold(cfg.RateLimit, "off") {
		cfg.RateLimit = ""
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
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

// LoadForTests overrides environment variables for the duration of Load.
// Empty values unset the variable.
func LoadForTests(vars map[string]string) (*Config, error) {
	original := make(map[string]*string, len(vars))
	for key, value := range vars {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, value); err != nil {
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

func restoreEnv(values map[string]*string) error {
	var errs []string
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
