// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all sync engine configuration.
type Config struct {
	// Server
	ServerURL string
	AuthToken string

	// Logging
	LogLevel  string
	LogFormat string

	// HTTP
	RequestTimeout time.Duration

	// Listing refresh
	ListingRetryBaseDelay time.Duration

	// Recent-access tracker
	RecentLimit int

	// Uploads
	AutoRenameImages   bool
	UploadDismissDelay time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:             envOr("SERVER_URL", "http://localhost:8080"),
		AuthToken:             envOr("AUTH_TOKEN", ""),
		LogLevel:              envOr("LOG_LEVEL", "info"),
		LogFormat:             envOr("LOG_FORMAT", "console"),
		RequestTimeout:        envDuration("REQUEST_TIMEOUT", 30*time.Second),
		ListingRetryBaseDelay: envDuration("LISTING_RETRY_BASE_DELAY", 500*time.Millisecond),
		RecentLimit:           envInt("RECENT_LIMIT", 50),
		AutoRenameImages:      envBool("AUTO_RENAME_IMAGES", false),
		UploadDismissDelay:    envDuration("UPLOAD_DISMISS_DELAY", 3*time.Second),
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("SERVER_URL is required")
	}
	if cfg.RecentLimit <= 0 {
		return nil, fmt.Errorf("RECENT_LIMIT must be positive")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
