// Package config manages application configuration
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration
type Config struct {
	// Backend
	APIBaseURL string
	APITimeout time.Duration

	// Credential store
	CredentialDB     string // sqlite file holding the persisted session
	CredentialSecret string // optional; enables at-rest token encryption

	Environment string // "development" or "production"
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:       getEnv("QUEUELESS_API_URL", "http://localhost:8000/api"),
		APITimeout:       getDurationEnv("QUEUELESS_API_TIMEOUT", 10*time.Second),
		CredentialDB:     getEnv("QUEUELESS_CREDENTIAL_DB", "queueless.db"),
		CredentialSecret: os.Getenv("QUEUELESS_CREDENTIAL_SECRET"),
		Environment:      getEnv("QUEUELESS_ENV", "development"),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
