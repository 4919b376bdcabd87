// Package config loads connection settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultURL is the address ASReview LAB listens on when started locally.
	DefaultURL = "http://localhost:5000"
	// DefaultTimeout bounds a single stats request.
	DefaultTimeout = 10 * time.Second
)

// ErrNoEnvFile reports that there is no .env file to load.
var ErrNoEnvFile = errors.New(".env not found")

// Config holds the connection settings for the ASReview LAB server.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// LoadConfig reads an optional .env file and then the environment.
// A missing .env file is reported as ErrNoEnvFile and the Config is still
// usable. A .env file that exists but cannot be read or parsed is an error.
func LoadConfig() (Config, error) {
	envErr := godotenv.Load()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", envErr)
	}

	cfg, err := FromEnv()
	if err != nil {
		return cfg, err
	}
	if envErr != nil {
		return cfg, fmt.Errorf("%w: %v", ErrNoEnvFile, envErr)
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		URL:     getEnv("ASREVIEW_URL", DefaultURL),
		Token:   os.Getenv("ASREVIEW_TOKEN"),
		Timeout: DefaultTimeout,
	}
	if raw := os.Getenv("ASREVIEW_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid ASREVIEW_TIMEOUT %q: %w", raw, err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
