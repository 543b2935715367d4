// Package config loads process configuration from the environment into
// one explicit struct, built once at startup and passed into components.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries need to talk to their managed
// collaborators: the database, the blob store, and the queue.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	StorageURL    string
	StorageKey    string
	ReceiptBucket string
	ArchiveBucket string

	KafkaBrokers []string
	DLQTopic     string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present, matching how the deployment scripts seed local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getenv("DB_PORT", "5432"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSSLMode:     getenv("DB_SSLMODE", "require"),
		StorageURL:    os.Getenv("STORAGE_URL"),
		StorageKey:    os.Getenv("STORAGE_KEY"),
		ReceiptBucket: getenv("RECEIPT_BUCKET", "receipts"),
		ArchiveBucket: getenv("ARCHIVE_BUCKET", "dead-letters"),
		KafkaBrokers:  strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ","),
		DLQTopic:      getenv("DLQ_TOPIC", "dead-letter-queue"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"DB_HOST", cfg.DBHost},
		{"DB_USER", cfg.DBUser},
		{"DB_PASSWORD", cfg.DBPassword},
		{"DB_NAME", cfg.DBName},
	}
	for _, v := range required {
		if v.value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", v.name)
		}
	}

	return cfg, nil
}

// DSN returns the postgres connection string for database/sql.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
