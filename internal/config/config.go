package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Database DatabaseConfig
	Presence PresenceConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// PresenceConfig holds the two timing constants governing staleness
// and refresh cadence of the live reader views.
type PresenceConfig struct {
	// Window is how long after its last detection a device still
	// counts as present at a reader.
	Window time.Duration

	// RecomputeInterval is the wall-clock cadence at which live
	// sessions re-derive their view even without a change signal,
	// so entries expire out of the window on time.
	RecomputeInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	window, err := getDuration("PRESENCE_WINDOW", 15*time.Second)
	if err != nil {
		return nil, err
	}
	interval, err := getDuration("LIVE_RECOMPUTE_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port: getEnv("PORT", "3210"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "tagwatch"),
		},
		Presence: PresenceConfig{
			Window:            window,
			RecomputeInterval: interval,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses an environment variable as a Go duration string
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
