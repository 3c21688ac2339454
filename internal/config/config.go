package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the indexer.
type Config struct {
	// PostgreSQL
	PostgresURL string

	// Redis
	RedisURL      string
	BlocksTopic   string
	ConsumerGroup string

	// WebSocket ledger feed
	WSEnabled        bool
	WSURL            string
	WSMaxRetries     int
	WSReconnectDelay time.Duration

	// HTTP API
	HTTPEnabled bool
	HTTPAddr    string
	JWTSecret   string

	// Logging
	LogLevel string

	// Maintenance
	GapCheckInterval time.Duration // Periodic gap check interval (0 = disabled)
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		BlocksTopic:      "blocks-to-apply",
		ConsumerGroup:    "indexer-workers",
		WSEnabled:        true,
		WSMaxRetries:     25,
		WSReconnectDelay: time.Second,
		HTTPEnabled:      true,
		HTTPAddr:         ":8080",
		LogLevel:         "info",
	}

	// Required
	cfg.PostgresURL = os.Getenv("POSTGRES_URL")
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	// Optional overrides
	if v := os.Getenv("BLOCKS_TOPIC"); v != "" {
		cfg.BlocksTopic = v
	}

	if v := os.Getenv("CONSUMER_GROUP"); v != "" {
		cfg.ConsumerGroup = v
	}

	if v := os.Getenv("WS_ENABLED"); v != "" {
		cfg.WSEnabled = v == "true" || v == "1"
	}

	cfg.WSURL = os.Getenv("WS_URL")
	if cfg.WSURL == "" && cfg.WSEnabled {
		cfg.WSURL = "ws://localhost:50051/events"
	}

	if v := os.Getenv("WS_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WSMaxRetries = n
		}
	}

	if v := os.Getenv("WS_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WSReconnectDelay = d
		}
	}

	if v := os.Getenv("HTTP_ENABLED"); v != "" {
		cfg.HTTPEnabled = v == "true" || v == "1"
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" && cfg.HTTPEnabled {
		return nil, fmt.Errorf("JWT_SECRET is required when the HTTP API is enabled")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("GAP_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GapCheckInterval = d
		}
	}

	return cfg, nil
}
