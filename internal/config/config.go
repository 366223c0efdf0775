package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// DefaultSessionSecret is only fit for local development.
const DefaultSessionSecret = "concierge-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Static resources
	IntentsPath     string
	CatalogPath     string // empty means the built-in catalog
	RatingModelPath string

	// Rating predictor. An empty RatingAPIURL means the local model.
	RatingAPIURL  string
	RatingTimeout time.Duration

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Sessions
	SessionBackend  string
	SessionTTL      time.Duration
	SessionSecret   string
	SessionTokenTTL time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting, per client IP. 0 disables it.
	RateLimitPerMin int

	// Seed for canned-reply selection. 0 means time-seeded.
	ReplySeed int64

	// Observability. Empty disables trace export.
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		IntentsPath:     v.GetString("INTENTS_PATH"),
		CatalogPath:     v.GetString("CATALOG_PATH"),
		RatingModelPath: v.GetString("RATING_MODEL_PATH"),

		RatingAPIURL:  v.GetString("RATING_API_URL"),
		RatingTimeout: v.GetDuration("RATING_TIMEOUT"),

		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		SessionBackend:  strings.ToLower(v.GetString("SESSION_BACKEND")),
		SessionTTL:      v.GetDuration("SESSION_TTL"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		SessionTokenTTL: v.GetDuration("SESSION_TOKEN_TTL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		RateLimitPerMin: v.GetInt("RATE_LIMIT_PER_MIN"),
		ReplySeed:       v.GetInt64("REPLY_SEED"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("INTENTS_PATH", "assets/intents.json")
	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("RATING_MODEL_PATH", "assets/rating_model.yaml")

	v.SetDefault("RATING_API_URL", "")
	v.SetDefault("RATING_TIMEOUT", 3*time.Second)

	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)

	v.SetDefault("MAX_RETRIES", 0)
	v.SetDefault("INITIAL_BACKOFF", 100*time.Millisecond)
	v.SetDefault("MAX_CONCURRENCY", 50)

	v.SetDefault("SESSION_BACKEND", SessionBackendMemory)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("SESSION_SECRET", DefaultSessionSecret)
	v.SetDefault("SESSION_TOKEN_TTL", 24*time.Hour)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("REPLY_SEED", 0)

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("config: SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendMemory, SessionBackendRedis, c.SessionBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET must not be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: MAX_RETRIES must not be negative")
	}
	return nil
}
