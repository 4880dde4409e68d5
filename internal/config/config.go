// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Run history retention, in days. Runs older than this are removed by
	// the cleanup job.
	RunRetentionDays int

	// Cron specs for the maintenance jobs.
	CleanupSchedule    string
	CheckpointSchedule string
	BackupSchedule     string

	// Local backup archives kept after each run.
	BackupKeepLocal int
	// Offsite backups older than this many days are rotated out. 0 keeps
	// everything.
	BackupRetentionDays int

	S3 S3Settings
}

// S3Settings holds the offsite backup target. Endpoint supports
// S3-compatible stores (R2, MinIO) next to AWS itself.
type S3Settings struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether enough configuration exists to attempt uploads.
func (s S3Settings) Enabled() bool {
	return s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. Check TREE_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("TREE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RunRetentionDays: getEnvAsInt("RUN_RETENTION_DAYS", 90),

		CleanupSchedule:    getEnv("CLEANUP_SCHEDULE", "30 3 * * *"),
		CheckpointSchedule: getEnv("CHECKPOINT_SCHEDULE", "*/30 * * * *"),
		BackupSchedule:     getEnv("BACKUP_SCHEDULE", "0 4 * * *"),

		BackupKeepLocal:     getEnvAsInt("BACKUP_KEEP_LOCAL", 7),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),

		S3: S3Settings{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", ""),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RunRetentionDays < 0 {
		return fmt.Errorf("invalid run retention: %d", c.RunRetentionDays)
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
