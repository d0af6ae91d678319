package config

import (
	"os"
	"strconv"
	"time"
)

// HTTPConfig holds server binding and the base URL used to build absolute
// links for the headless-Chrome renderer.
type HTTPConfig struct {
	Port    string
	BaseURL string
}

// DatabaseConfig holds Postgres connectivity.
type DatabaseConfig struct {
	URL string
}

// StorageConfig holds MinIO connectivity for product image uploads.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // base URL prefixed to object keys in stored image URLs
}

// DriveConfig holds Google Drive bulk-import settings.
type DriveConfig struct {
	CredentialsPath string
}

// UploadConfig tunes the bulk image upload orchestrator.
type UploadConfig struct {
	Concurrency    int
	Attempts       int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration
}

// RedisConfig holds the optional upload-session status store backend.
type RedisConfig struct {
	URL string
}

// LoggingConfig holds logger output settings.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config is the top-level configuration.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Upload   UploadConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

// FromEnv loads configuration from environment variables with sensible
// defaults for local development.
func FromEnv() Config {
	cfg := Config{}

	port := getEnv("PORT", "8080")
	if len(port) > 0 && port[0] == ':' {
		port = port[1:]
	}
	cfg.HTTP = HTTPConfig{
		Port:    port,
		BaseURL: getEnv("BASE_URL", "http://localhost:"+port),
	}

	cfg.Database = DatabaseConfig{
		URL: getEnv("DATABASE_URL", ""),
	}

	cfg.Storage = StorageConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		Bucket:    getEnv("MINIO_BUCKET", "product-images"),
		UseSSL:    parseBool(getEnv("MINIO_USE_SSL", "false")),
		PublicURL: getEnv("STORAGE_PUBLIC_URL", ""),
	}

	cfg.Drive = DriveConfig{
		CredentialsPath: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}

	cfg.Upload = UploadConfig{
		Concurrency:    parseInt(getEnv("UPLOAD_CONCURRENCY", "3"), 3),
		Attempts:       parseInt(getEnv("UPLOAD_ATTEMPTS", "3"), 3),
		RetryBaseDelay: parseDuration(getEnv("UPLOAD_RETRY_BASE_DELAY", "1s"), time.Second),
		AttemptTimeout: parseDuration(getEnv("UPLOAD_ATTEMPT_TIMEOUT", "60s"), 60*time.Second),
	}

	cfg.Redis = RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
