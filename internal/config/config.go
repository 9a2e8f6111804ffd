// Package config loads ledgerctl settings from environment variables and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	Store   StoreConfig
	Ledger  LedgerConfig
	Kafka   KafkaConfig
	Log     LogConfig
	Display DisplayConfig
}

// StoreConfig selects and locates the backing store.
type StoreConfig struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	LockTimeout time.Duration
}

// LedgerConfig holds engine policy.
type LedgerConfig struct {
	Scale             int32
	UniqueLedgerNames bool
}

// KafkaConfig enables event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

type LogConfig struct {
	Level  string
	Format string
}

// DisplayConfig controls how ledgerctl prints amounts.
type DisplayConfig struct {
	Currency string
}

// Load loads configuration from environment variables.
// It loads .env from the current directory if present, or envPath when given.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	scale, err := parseInt32Env("LEDGER_SCALE", 2)
	if err != nil {
		return nil, err
	}
	unique, err := parseBoolEnv("LEDGER_UNIQUE_LEDGER_NAMES", false)
	if err != nil {
		return nil, err
	}
	lockTimeout, err := parseDurationEnv("LEDGER_LOCK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnvOrDefault("LEDGER_STORE", StoreSQLite)),
			SQLitePath:  getEnvOrDefault("LEDGER_SQLITE_PATH", "./data/ledger.db"),
			DatabaseURL: os.Getenv("LEDGER_DATABASE_URL"),
			LockTimeout: lockTimeout,
		},
		Ledger: LedgerConfig{
			Scale:             scale,
			UniqueLedgerNames: unique,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("LEDGER_KAFKA_BROKERS")),
			TopicPrefix: os.Getenv("LEDGER_KAFKA_TOPIC"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LEDGER_LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LEDGER_LOG_FORMAT", "console"),
		},
		Display: DisplayConfig{
			Currency: strings.ToUpper(getEnvOrDefault("LEDGER_CURRENCY", "USD")),
		},
	}

	return config, nil
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("LEDGER_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("LEDGER_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown LEDGER_STORE %q: want %s, %s or %s",
			c.Store.Backend, StoreMemory, StoreSQLite, StorePostgres)
	}

	if c.Ledger.Scale < 0 || c.Ledger.Scale > 18 {
		return fmt.Errorf("LEDGER_SCALE must be between 0 and 18, got %d", c.Ledger.Scale)
	}
	if c.Store.LockTimeout <= 0 {
		return fmt.Errorf("LEDGER_LOCK_TIMEOUT must be positive, got %s", c.Store.LockTimeout)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt32Env(key string, defaultValue int32) (int32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	return int32(parsed), nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}
	return parsed, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	return parsed, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
