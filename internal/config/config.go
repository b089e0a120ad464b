package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath     string
	LogLevel         string
	Port             int
	DevMode          bool
	Workers          int
	AnalyticsPath    string
	GenerateSchedule string
	GenerateOnBoot   bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/indices.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Workers:          getEnvAsInt("GENERATE_WORKERS", 4),
		AnalyticsPath:    getEnv("ANALYTICS_CONFIG_PATH", "./config/analytics.yml"),
		GenerateSchedule: getEnv("GENERATE_SCHEDULE", "0 0 2 * * *"), // 02:00 daily
		GenerateOnBoot:   getEnvAsBool("GENERATE_ON_BOOT", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("GENERATE_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
