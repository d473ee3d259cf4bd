package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL    string `env:"DATABASE_URL" required:"true"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" default:"20"`

	// Authentication
	JWTSecret         string `env:"JWT_SECRET" required:"true"`
	AdminUsername     string `env:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     int    `env:"ADMIN_TOKEN_TTL" default:"3600"`

	// Redis Cache
	RedisURL      string `env:"REDIS_URL" default:"redis://redis:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" default:"3600"`

	// Scrape source
	SourceBaseURL   string `env:"SOURCE_BASE_URL" default:"https://nhentai.net"`
	SourceRateLimit int    `env:"SOURCE_RATE_LIMIT" default:"4"`
	SourceUserAgent string `env:"SOURCE_USER_AGENT" default:"Mozilla/5.0"`
	ScrapeWorkers   int    `env:"SCRAPE_WORKERS" default:"4"`

	// Object storage (Cloudflare R2, S3 compatible)
	R2Endpoint        string `env:"R2_ENDPOINT"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket          string `env:"R2_BUCKET"`
	CDNBaseURL        string `env:"CDN_BASE_URL"`
	UploadWorkers     int    `env:"UPLOAD_WORKERS" default:"4"`
	UploadMaxSize     int64  `env:"UPLOAD_MAX_SIZE" default:"20971520"`

	// Ingestion
	IngestRollback bool   `env:"INGEST_ROLLBACK" default:"true"`
	BlacklistFile  string `env:"BLACKLIST_FILE"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"info"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// If .env file doesn't exist, that's OK - we can still use system env vars
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DBMaxOpenConns, "DB_MAX_OPEN_CONNS", 20); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.AdminUsername, "ADMIN_USERNAME", "admin"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.AdminPasswordHash, "ADMIN_PASSWORD_HASH", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.AdminTokenTTL, "ADMIN_TOKEN_TTL", 3600); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", "redis://redis:6379"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CacheTTL, "CACHE_TTL", 3600); err != nil {
		return nil, err
	}

	// Scrape source
	if err := loadEnvString(&config.SourceBaseURL, "SOURCE_BASE_URL", "https://nhentai.net"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.SourceRateLimit, "SOURCE_RATE_LIMIT", 4); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SourceUserAgent, "SOURCE_USER_AGENT", "Mozilla/5.0"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.ScrapeWorkers, "SCRAPE_WORKERS", 4); err != nil {
		return nil, err
	}

	// Object storage
	if err := loadEnvString(&config.R2Endpoint, "R2_ENDPOINT", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.R2AccessKeyID, "R2_ACCESS_KEY_ID", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.R2SecretAccessKey, "R2_SECRET_ACCESS_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.R2Bucket, "R2_BUCKET", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.CDNBaseURL, "CDN_BASE_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.UploadWorkers, "UPLOAD_WORKERS", 4); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&config.UploadMaxSize, "UPLOAD_MAX_SIZE", 20<<20); err != nil {
		return nil, err
	}

	// Ingestion
	if err := loadEnvBool(&config.IngestRollback, "INGEST_ROLLBACK", true); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.BlacklistFile, "BLACKLIST_FILE", ""); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"}); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) error {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		// Trim whitespace from each element
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}
	if c.DBMaxOpenConns < 1 {
		errors = append(errors, "DB_MAX_OPEN_CONNS must be positive")
	}
	if c.AdminTokenTTL < 1 {
		errors = append(errors, "ADMIN_TOKEN_TTL must be positive")
	}
	if c.CacheTTL < 0 {
		errors = append(errors, "CACHE_TTL must not be negative")
	}
	if c.SourceRateLimit < 1 {
		errors = append(errors, "SOURCE_RATE_LIMIT must be positive")
	}
	if c.ScrapeWorkers < 1 || c.UploadWorkers < 1 {
		errors = append(errors, "SCRAPE_WORKERS and UPLOAD_WORKERS must be positive")
	}
	if !strings.HasPrefix(c.SourceBaseURL, "http://") && !strings.HasPrefix(c.SourceBaseURL, "https://") {
		errors = append(errors, "SOURCE_BASE_URL must be an http(s) URL")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// Validate JWT secret length (should be at least 32 characters for security)
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// StorageEnabled reports whether every R2 setting needed for re-hosting is present.
func (c *Config) StorageEnabled() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2Bucket != ""
}

// CacheDuration returns CACHE_TTL as a duration.
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// AdminTokenDuration returns ADMIN_TOKEN_TTL as a duration.
func (c *Config) AdminTokenDuration() time.Duration {
	return time.Duration(c.AdminTokenTTL) * time.Second
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
