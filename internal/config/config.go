// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
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

	// Task queue
	RedisURL    string // Redis connection URL (optional, disables async screening if not set)
	TaskTTL     time.Duration
	TaskWorkers int

	// Sanctions dataset
	SanctionsDataURL string
	DataDir          string
	CacheRefresh     time.Duration
	FetchTimeout     time.Duration

	// Tron explorer API
	TronAccountURL string
	TronTimeout    time.Duration

	// Web reputation upstream
	WebReputationURL string

	// Outbound HTTP
	HTTPUserAgent string

	// Security
	AdminSecret  string // Admin API secret, bootstraps key issuance
	RateLimitRPM int

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)
}

const (
	DefaultPort             = "8080"
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultSanctionsDataURL = "https://data.opensanctions.org/datasets/latest/default/targets.simple.csv"
	DefaultDataDir          = "./data"
	DefaultCacheFile        = "targets.simple.csv"
	DefaultTronAccountURL   = "https://apilist.tronscanapi.com/api/accountv2"
	DefaultUserAgent        = "instakyc-screening/1.0"
	DefaultRateLimitRPM     = 120
	DefaultTaskWorkers      = 2
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		Env:              getEnv("ENV", DefaultEnv),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:      os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		RedisURL:         os.Getenv("REDIS_URL"),
		TaskTTL:          time.Duration(getEnvInt64("TASK_RESULT_TTL_SECONDS", 300)) * time.Second,
		TaskWorkers:      int(getEnvInt64("TASK_WORKERS", DefaultTaskWorkers)),
		SanctionsDataURL: getEnv("SANCTIONS_DATA_URL", DefaultSanctionsDataURL),
		DataDir:          getEnv("DATA_DIR", DefaultDataDir),
		CacheRefresh:     time.Duration(getEnvInt64("CACHE_REFRESH_HOURS", 12)) * time.Hour,
		FetchTimeout:     time.Duration(getEnvInt64("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		TronAccountURL:   getEnv("TRON_ACCOUNT_URL", DefaultTronAccountURL),
		TronTimeout:      time.Duration(getEnvInt64("TRON_TIMEOUT_SECONDS", 12)) * time.Second,
		WebReputationURL: os.Getenv("WEB_REPUTATION_URL"),
		HTTPUserAgent:    getEnv("HTTP_USER_AGENT", DefaultUserAgent),
		AdminSecret:      os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:     int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		OTLPEndpoint:     os.Getenv("OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.SanctionsDataURL == "" {
		return fmt.Errorf("SANCTIONS_DATA_URL is required")
	}
	if c.TronAccountURL == "" {
		return fmt.Errorf("TRON_ACCOUNT_URL is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.TaskWorkers < 1 {
		return fmt.Errorf("TASK_WORKERS must be at least 1")
	}
	return nil
}

// CachePath returns the on-disk location of the sanctions dataset artifact.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, DefaultCacheFile)
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
