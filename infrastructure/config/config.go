// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion       string
	PropertiesTable string
	AnalysisTable   string
	// EventBusName empty means event publishing is disabled.
	EventBusName string

	// Authentication (local mode only; in Lambda the API Gateway
	// authorizer resolves identity upstream)
	JWTSecret string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		PropertiesTable: getEnv("PROPERTIES_TABLE", "properties"),
		AnalysisTable:   getEnv("ANALYSIS_TABLE", "property-analysis"),
		EventBusName:    getEnv("EVENT_BUS_NAME", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.PropertiesTable == "" {
		return fmt.Errorf("PROPERTIES_TABLE is required")
	}
	if c.AnalysisTable == "" {
		return fmt.Errorf("ANALYSIS_TABLE is required")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
