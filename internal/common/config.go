package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Rules   RulesConfig
	Extract ExtractConfig
	Batch   BatchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr       string
	MaxUploadBytes int64
}

// RulesConfig selects where parsing rules come from.
// Source is "file" (JSON document) or "db" (Postgres/SQLite DSN).
type RulesConfig struct {
	Source string
	Path   string
	DSN    string
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Pdftotext string
	Timeout   time.Duration
}

// BatchConfig holds batch-processing configuration
type BatchConfig struct {
	Workers     int
	FileTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 20<<20),
		},
		Rules: RulesConfig{
			Source: getEnv("RULES_SOURCE", "file"),
			Path:   getEnv("RULES_PATH", "./rules.json"),
			DSN:    getEnv("RULES_DSN", ""),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Timeout:   getEnvAsDuration("EXTRACT_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			Workers:     getEnvAsInt("BATCH_WORKERS", 4),
			FileTimeout: getEnvAsDuration("BATCH_FILE_TIMEOUT", 2*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Rules.Source {
	case "file":
		if c.Rules.Path == "" {
			return NewAppError("CONFIG_ERROR", "RULES_PATH is required for file source", ErrInvalidInput)
		}
	case "db":
		if c.Rules.DSN == "" {
			return NewAppError("CONFIG_ERROR", "RULES_DSN is required for db source", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "RULES_SOURCE must be file or db", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Extract.Pdftotext == "" {
		return NewAppError("CONFIG_ERROR", "PDFTOTEXT_BIN is required", ErrInvalidInput)
	}
	return nil
}
