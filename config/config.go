// Package config loads bookkeeper configuration from the environment and
// from .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store kinds accepted in BOOKKEEPER_STORE.
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// StoreKinds lists every supported store kind.
var StoreKinds = []string{StoreMemory, StoreBolt, StoreSQLite, StorePostgres}

// DefaultKafkaTopic is the topic transaction events are published to.
const DefaultKafkaTopic = "transactions.recorded"

// Config represents the application configuration.
type Config struct {
	Store StoreConfig
	Kafka KafkaConfig

	// MinorUnits is the number of decimal places amounts are shown with.
	MinorUnits int32

	LogLevel string
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Kind string

	// DSN is the bolt or sqlite file path, or the postgres connection string.
	DSN string
}

// KafkaConfig configures publishing of transaction events. Events are
// disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load reads configuration from environment variables. A .env file in the
// current directory is loaded if present; an explicit envPath must exist.
// Variables already set in the environment take precedence over the file.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	minorUnits, err := parseInt32Env("BOOKKEEPER_MINOR_UNITS", 2)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Store: StoreConfig{
			Kind: strings.ToLower(getEnvOrDefault("BOOKKEEPER_STORE", StoreMemory)),
			DSN:  os.Getenv("BOOKKEEPER_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("BOOKKEEPER_KAFKA_BROKERS")),
			Topic:   getEnvOrDefault("BOOKKEEPER_KAFKA_TOPIC", DefaultKafkaTopic),
		},
		MinorUnits: minorUnits,
		LogLevel:   getEnvOrDefault("BOOKKEEPER_LOG_LEVEL", "info"),
	}

	return config, nil
}

// Validate checks that the configuration can be used to open a store.
func (c *Config) Validate() error {
	known := false
	for _, kind := range StoreKinds {
		if c.Store.Kind == kind {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown store %q, expected one of %s", c.Store.Kind, strings.Join(StoreKinds, ", "))
	}

	if c.Store.Kind != StoreMemory && c.Store.DSN == "" {
		return fmt.Errorf("missing required configuration: BOOKKEEPER_DSN for store %q\nPlease check your .env file or environment variables", c.Store.Kind)
	}

	if c.MinorUnits < 0 {
		return fmt.Errorf("invalid BOOKKEEPER_MINOR_UNITS: %d must not be negative", c.MinorUnits)
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("missing required configuration: BOOKKEEPER_KAFKA_TOPIC")
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

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
