// Package config loads runtime configuration from the environment, with an
// optional YAML overrides file for retrieval tuning that can be reloaded
// without a restart.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage driver names
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageDriver string
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Retrieval tuning overrides, reloaded on change when set
	RetrievalOverridesPath string

	// Entity sync chunk size; zero keeps the domain default
	SyncBatchSize int

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS    bool
	EnableMetrics bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: getEnv("STORAGE_DRIVER", StorageMemory),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "mnemo"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		RetrievalOverridesPath: getEnv("RETRIEVAL_OVERRIDES_FILE", ""),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "mnemo-backend"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageDriver == StorageDynamoDB && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required with dynamodb storage")
		}
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
