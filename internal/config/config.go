package config

import (
	"os"
	"strconv"

	"agencywheel/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Experiment ExperimentConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ExperimentConfig holds the experimental-design parameters
type ExperimentConfig struct {
	// MiniBlocks is the number of mini-blocks per session (1-5).
	MiniBlocks int
	// ApprovalRate is the probability that an agency-trial choice is
	// approved rather than vetoed.
	ApprovalRate float64
	// BaseSeed seeds the per-session RNG streams. 0 means time-based.
	BaseSeed int64
	// ExportDir is where batch exports are written.
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Experiment: ExperimentConfig{
			MiniBlocks:   getEnvIntOrDefault("MINI_BLOCKS", 5),
			ApprovalRate: getEnvFloatOrDefault("APPROVAL_RATE", 2.0/3.0),
			BaseSeed:     int64(getEnvIntOrDefault("BASE_SEED", 0)),
			ExportDir:    getEnvOrDefault("EXPORT_DIR", "./exports"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Experiment.MiniBlocks < 1 || config.Experiment.MiniBlocks > 5 {
		return errors.ConfigInvalid("MINI_BLOCKS must be between 1 and 5")
	}
	if config.Experiment.ApprovalRate <= 0 || config.Experiment.ApprovalRate > 1 {
		return errors.ConfigInvalid("APPROVAL_RATE must be in (0, 1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
