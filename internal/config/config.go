package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fennwick/cardroom/pkg/entities"
)

// Config holds all configuration for the application
type Config struct {
	// Balance endpoint; empty means local-only play against the
	// in-process ledger
	EndpointURL string
	AuthToken   string

	// Storage
	DataDir     string
	StorageType string // "sqlite" or "memory"

	// Elasticsearch round archiving (optional)
	ElasticsearchURL string

	// Table defaults, clamped into entities.Settings
	MinBet        int64
	MaxBet        int64
	StartingChips int64
	DealerSpeed   time.Duration
	LLMEnabled    bool

	// Environment
	Environment string // "development" or "production"
	LogLevel    string
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		EndpointURL:      os.Getenv("CARDROOM_ENDPOINT"),
		AuthToken:        os.Getenv("CARDROOM_TOKEN"),
		DataDir:          getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		StorageType:      getEnvWithDefault("STORAGE_TYPE", "memory"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
		MinBet:           getEnvInt64("MIN_BET", 10),
		MaxBet:           getEnvInt64("MAX_BET", 500),
		StartingChips:    getEnvInt64("STARTING_CHIPS", 1000),
		DealerSpeed:      time.Duration(getEnvInt64("DEALER_SPEED_MS", 800)) * time.Millisecond,
		LLMEnabled:       os.Getenv("LLM_ENABLED") == "true",
		Environment:      getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Settings builds the clamped table settings from the configuration.
func (c *Config) Settings() *entities.Settings {
	s := &entities.Settings{
		MinBet:        c.MinBet,
		MaxBet:        c.MaxBet,
		StartingChips: c.StartingChips,
		DealerSpeed:   c.DealerSpeed,
		LLMEnabled:    c.LLMEnabled,
	}
	s.Clamp()
	return s
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.StorageType != "memory" && c.StorageType != "sqlite" {
		return fmt.Errorf("STORAGE_TYPE must be \"memory\" or \"sqlite\", got %q", c.StorageType)
	}
	if c.MinBet < 1 {
		return fmt.Errorf("MIN_BET must be at least 1")
	}
	if c.MaxBet < c.MinBet {
		return fmt.Errorf("MAX_BET must be at least MIN_BET")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 returns an integer environment variable or default if
// unset or unparseable
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
