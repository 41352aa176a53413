// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Generative model settings
	GeminiAPIKey    string // Empty disables the model path; classifier runs offline-only
	GeminiModel     string
	ClassifyTimeout time.Duration

	// Phone number handling
	DefaultRegion string // ISO 3166-1 alpha-2, used when numbers lack a country prefix

	// Free-tier daily quotas
	FreeDeepfakeScans int
	FreeMessageScans  int
	FreeCallLookups   int

	// Call session policy
	AutoHangupScore int           // auto-hangup considered below this reputation score
	AutoHangupGrace time.Duration // delay between risk detection and auto-hangup
	SessionDwell    time.Duration // how long a finished session stays visible

	// Security / limits
	RateLimitRPM int

	// Observability
	OTLPEndpoint string
}

// Defaults
const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultGeminiModel     = "gemini-1.5-flash"
	DefaultRegion          = "VN"
	DefaultClassifyTimeout = 8 * time.Second
	DefaultDeepfakeScans   = 3
	DefaultMessageScans    = 10
	DefaultCallLookups     = 20
	DefaultAutoHangupScore = 20
	DefaultAutoHangupGrace = 3 * time.Second
	DefaultSessionDwell    = 2 * time.Second
	DefaultRateLimit       = 60
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", DefaultGeminiModel),
		ClassifyTimeout:   getEnvDuration("CLASSIFY_TIMEOUT", DefaultClassifyTimeout),
		DefaultRegion:     getEnv("DEFAULT_REGION", DefaultRegion),
		FreeDeepfakeScans: getEnvInt("FREE_DEEPFAKE_SCANS", DefaultDeepfakeScans),
		FreeMessageScans:  getEnvInt("FREE_MESSAGE_SCANS", DefaultMessageScans),
		FreeCallLookups:   getEnvInt("FREE_CALL_LOOKUPS", DefaultCallLookups),
		AutoHangupScore:   getEnvInt("AUTO_HANGUP_SCORE", DefaultAutoHangupScore),
		AutoHangupGrace:   getEnvDuration("AUTO_HANGUP_GRACE", DefaultAutoHangupGrace),
		SessionDwell:      getEnvDuration("SESSION_DWELL", DefaultSessionDwell),
		RateLimitRPM:      getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if len(c.DefaultRegion) != 2 {
		return fmt.Errorf("DEFAULT_REGION must be a two-letter country code, got %q", c.DefaultRegion)
	}
	if c.FreeDeepfakeScans < 0 || c.FreeMessageScans < 0 || c.FreeCallLookups < 0 {
		return fmt.Errorf("free-tier quotas must be non-negative")
	}
	if c.AutoHangupScore < 0 || c.AutoHangupScore > 100 {
		return fmt.Errorf("AUTO_HANGUP_SCORE must be between 0 and 100, got %d", c.AutoHangupScore)
	}
	if c.ClassifyTimeout <= 0 {
		return fmt.Errorf("CLASSIFY_TIMEOUT must be positive")
	}
	return nil
}

// ModelEnabled reports whether the generative model path is configured.
func (c *Config) ModelEnabled() bool {
	return c.GeminiAPIKey != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
