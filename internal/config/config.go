package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
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
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	RunMigrations      bool
	MaxBodyBytes       int64
	EnableHSTS         bool

	BaselineTaxRate float64
	DraftTTL        time.Duration
	IdempotencyTTL  time.Duration
	SaveLockTTL     time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
	RateLimitGlobal string

	AuditQueue        string
	WorkerConcurrency int

	LogFormat         string
	LogLevel          string
	MetricsNamespace  string
	MetricsEnabled    bool
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
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
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RunMigrations:      parseBool(k.String("RUN_MIGRATIONS")),
		MaxBodyBytes:       int64(parseInt(k.String("HTTP_MAX_BODY_BYTES"), 1<<20)),
		EnableHSTS:         parseBool(k.String("SECURITY_ENABLE_HSTS")),

		BaselineTaxRate: parseFloat(k.String("PRICING_BASELINE_TAX_RATE"), 8),
		DraftTTL:        parseDuration(k.String("DRAFT_TTL"), "72h"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		SaveLockTTL:     parseDuration(k.String("SAVE_LOCK_TTL"), "10s"),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 120),
		RateLimitGlobal: valueOrDefault(strings.TrimSpace(k.String("RATE_LIMIT_GLOBAL")), "600-M"),

		AuditQueue:        valueOrDefault(k.String("AUDIT_QUEUE"), "audit"),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 4),

		LogFormat:         valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:          valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:  valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "lab"),
		MetricsEnabled:    parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		TracingEnabled:    parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		OTLPEndpoint:      strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampleRate: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
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

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
