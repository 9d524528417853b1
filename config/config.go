// Package config loads and validates the application configuration from
// environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	Address             string
	Env                 string
	LogLevel            string
	LogDir              string
	LogRetentionWeeks   int
	DataFile            string // path of the ledger workbook
	BackupDir           string // where timestamped backups go; empty disables backups
	BackupRetentionDays int
	MaxRequestBody      int64 // maximum request body size in bytes
}

// Load reads configuration from environment variables, applying defaults
// and validating every value.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnvWithDefault("PORT", "8000"),
		Address:             getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:                 getEnvWithDefault("ENV", "dev"),
		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:              getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks:   getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		DataFile:            getEnvWithDefault("DATA_FILE", "Pacientes.xlsx"),
		BackupDir:           getEnvWithDefault("BACKUP_DIR", "backups"),
		BackupRetentionDays: getIntEnvWithDefault("BACKUP_RETENTION_DAYS", 90),
		MaxRequestBody:      getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateOneOf("ENV", cfg.Env, []string{"dev", "staging", "prod", "test"}); err != nil {
		return err
	}

	if err := validateOneOf("LOG_LEVEL", cfg.LogLevel, []string{"debug", "info", "warn", "error"}); err != nil {
		return err
	}

	if cfg.LogRetentionWeeks < 1 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got %d", cfg.LogRetentionWeeks)
	}

	if err := validateDataFile(cfg.DataFile); err != nil {
		return fmt.Errorf("invalid DATA_FILE: %w", err)
	}

	if cfg.BackupRetentionDays < 0 {
		return fmt.Errorf("invalid BACKUP_RETENTION_DAYS: must not be negative, got %d", cfg.BackupRetentionDays)
	}

	if cfg.MaxRequestBody <= 0 || cfg.MaxRequestBody > 100*1024*1024 {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: must be between 1 byte and 100MB, got %d", cfg.MaxRequestBody)
	}

	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1024 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1024 and 65535, got %d", portNum)
	}

	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

func validateDataFile(path string) error {
	if path == "" {
		return fmt.Errorf("DATA_FILE cannot be empty")
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("DATA_FILE must have an .xlsx extension, got: %s", path)
	}

	return nil
}

func validateOneOf(name, value string, valid []string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}

	lower := strings.ToLower(value)
	for _, v := range valid {
		if lower == v {
			return nil
		}
	}

	return fmt.Errorf("%s must be one of %v, got: %s", name, valid, value)
}

// getEnvWithDefault gets an environment variable with a default value.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
