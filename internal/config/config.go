package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction  bool
	ProdOrigins   string
	HTTPAddr      string
	DBDSN         string
	RunMigrations bool
	LogLevel      string

	AdminJWTSecret string
	AdminJWTTTL    time.Duration
	BcryptCost     int

	UploadDir           string
	PhotoMaxBytes       int64
	PhotoAllowOverwrite bool

	CacheSize int
	CacheTTL  time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.RunMigrations, err = getEnvAsBool("RUN_MIGRATIONS", true)
	if err != nil {
		return nil, err
	}

	// Admin JWT secret is required for verifying admin tokens
	cfg.AdminJWTSecret = os.Getenv("ADMIN_JWT_SECRET")
	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}

	// Admin token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.AdminJWTTTL, err = getEnvAsDuration("ADMIN_JWT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	// Bcrypt cost for management password hashing (default: 10)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	cfg.UploadDir = getEnv("UPLOAD_DIR", "./data/images")

	maxBytes, err := getEnvAsInt("PHOTO_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid PHOTO_MAX_BYTES: %w", err)
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("PHOTO_MAX_BYTES must be positive")
	}
	cfg.PhotoMaxBytes = int64(maxBytes)

	cfg.PhotoAllowOverwrite, err = getEnvAsBool("PHOTO_ALLOW_OVERWRITE", false)
	if err != nil {
		return nil, err
	}

	// Read cache (CACHE_SIZE=0 disables it)
	cfg.CacheSize, err = getEnvAsInt("CACHE_SIZE", 512)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}
	cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
