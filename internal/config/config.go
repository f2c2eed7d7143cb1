package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration
type Config struct {
	// Backward-search configuration
	SearchStep time.Duration

	// Capacity policy configuration
	BypassDefault bool

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Application metadata
	AppName    string
	AppVersion string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		SearchStep:    time.Duration(getEnvInt("SEARCH_STEP_MINUTES", 15)) * time.Minute,
		BypassDefault: getEnvBool("CAPACITY_BYPASS_DEFAULT", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		AppName:       "production-scheduler",
		AppVersion:    getEnv("APP_VERSION", "dev"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when the host does not load one:
// 15-minute search granularity, capacity bypass off.
func Default() *Config {
	return &Config{
		SearchStep:    15 * time.Minute,
		BypassDefault: false,
		LogLevel:      "info",
		LogFormat:     "json",
		AppName:       "production-scheduler",
		AppVersion:    "dev",
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.SearchStep <= 0 {
		return fmt.Errorf("invalid search step: %s (must be positive)", c.SearchStep)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return defaultVal
		}
		return b
	}
	return defaultVal
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal
		}
		return i
	}
	return defaultVal
}
