// Package config provides configuration management for the need2reef API.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const devJWTSecret = "need2reef-dev-secret"

// Config holds all configuration for the API and the worker.
type Config struct {
	// Server settings
	Port        string
	FrontendURL string
	Playground  bool

	// Store settings
	StoreDriver    string
	DatabaseURL    string
	MigrationsPath string
	RunMigrations  bool

	// Auth settings
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Logging
	LogLevel  string
	LogFormat string

	// Temporal settings
	TemporalAddress    string
	TemporalNamespace  string
	TemporalTaskQueue  string
	ReconcileBatchSize int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "4000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		Playground:  getEnvBool("PLAYGROUND", true),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", false),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   getEnvDuration("TOKEN_TTL", 0),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		TemporalAddress:    getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:  getEnv("TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue:  getEnv("TEMPORAL_TASK_QUEUE", "need2reef"),
		ReconcileBatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 100),
	}

	// The memory store is for local runs only, so it may sign with a fixed key.
	if cfg.JWTSecret == "" && cfg.StoreDriver == DriverMemory {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be postgres or memory"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}
	if c.ReconcileBatchSize <= 0 {
		errs = append(errs, errors.New("RECONCILE_BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
