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
	Host string
	Port string

	// Database settings
	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize int
	CacheTTL  time.Duration

	// Ingest settings
	DataDir string

	// Dashboard settings
	DefaultTopN        int
	MaxGroups          int
	DefaultGranularity string
	QueryTimeout       time.Duration

	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "sqlite"),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/court_outcomes.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DataDir:            getEnv("DATA_DIR", "./data/raw"),
		DefaultGranularity: getEnv("DEFAULT_GRANULARITY", "day"),
	}

	// Parse integer values
	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Minute

	cfg.DefaultTopN, err = strconv.Atoi(getEnv("DEFAULT_TOP_N", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TOP_N: %w", err)
	}
	if cfg.DefaultTopN <= 0 {
		return nil, fmt.Errorf("invalid DEFAULT_TOP_N: must be positive, got %d", cfg.DefaultTopN)
	}

	cfg.MaxGroups, err = strconv.Atoi(getEnv("MAX_GROUPS", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_GROUPS: %w", err)
	}

	queryTimeout, err := strconv.Atoi(getEnv("QUERY_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
	}
	cfg.QueryTimeout = time.Duration(queryTimeout) * time.Second

	cfg.MetricsEnabled = getEnv("METRICS_ENABLED", "true") == "true"

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("invalid DATABASE_DRIVER: %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
