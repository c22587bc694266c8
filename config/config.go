package config

import (
	"os"
	"time"

	"chaingraph-backend/api/blockfrost"
	"chaingraph-backend/internal/analytics"
	"chaingraph-backend/internal/broadcaster"
	"chaingraph-backend/internal/ingest"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig       `json:"server"`
	Blockfrost  blockfrost.Config  `json:"blockfrost"`
	Ingest      ingest.Config      `json:"ingest"`
	Analytics   analytics.Config   `json:"analytics"`
	Broadcaster broadcaster.Config `json:"broadcaster"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port    string        `json:"port"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns default configuration for the entire application
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:    ":8080",
			Timeout: 30 * time.Second,
		},
		Blockfrost:  blockfrost.DefaultConfig(),
		Ingest:      ingest.DefaultConfig(),
		Analytics:   analytics.DefaultConfig(),
		Broadcaster: broadcaster.DefaultConfig(),
	}
}

// Load returns the default configuration with environment overrides applied
func Load() Config {
	cfg := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = ":" + port
	}
	if projectID := os.Getenv("BLOCKFROST_PROJECT_ID"); projectID != "" {
		cfg.Blockfrost.ProjectID = projectID
	}
	if url := os.Getenv("BLOCKFROST_URL"); url != "" {
		cfg.Blockfrost.BaseURL = url
	}
	if interval := os.Getenv("POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.Ingest.PollInterval = d
		}
	}

	return cfg
}
