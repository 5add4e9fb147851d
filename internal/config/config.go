package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// Postgres
	DatabaseURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Hosted auth provider
	AuthBaseURL    string // e.g. https://<project>.auth.example.com
	AuthJwtSecret  string // HS256 secret the provider signs access tokens with
	AuthServiceKey string // privileged key for admin user lookups
	AuthAPIKey     string // public (anon) key sent with every provider call

	// Session cookies
	AccessCookieName  string
	RefreshCookieName string
	CookieDomain      string
	CookieSecure      bool
	CookieMaxAge      time.Duration

	// Server
	ApiPort           string
	CorsAllowedOrigin string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseS3URL     string
	ImageMaxDimension  int
	ImageMaxSizeMB     int
	MaxListingPhotos   int

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	// Load basic string values
	cfg.DatabaseURL, err = getRequiredEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.AuthJwtSecret, err = getRequiredEnv("AUTH_JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.AuthBaseURL = getEnv("AUTH_BASE_URL", "http://localhost:9999")
	cfg.AuthServiceKey = getEnv("AUTH_SERVICE_KEY", "")
	cfg.AuthAPIKey = getEnv("AUTH_API_KEY", "")
	cfg.AccessCookieName = getEnv("ACCESS_COOKIE_NAME", "em-access-token")
	cfg.RefreshCookieName = getEnv("REFRESH_COOKIE_NAME", "em-refresh-token")
	cfg.CookieDomain = getEnv("COOKIE_DOMAIN", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.CorsAllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", "*")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@marketplace.example.com")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")
	cfg.AppName = getEnv("APP_NAME", "Enthusiast Marketplace")

	// Load numeric and boolean values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	cookieMaxAgeSeconds, err := strconv.ParseInt(getEnv("COOKIE_MAX_AGE_SECONDS", "604800"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_MAX_AGE_SECONDS: %w", err)
	}
	cfg.CookieMaxAge = time.Duration(cookieMaxAgeSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.MaxListingPhotos, err = strconv.Atoi(getEnv("MAX_LISTING_PHOTOS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_LISTING_PHOTOS: %w", err)
	}

	// Rate Limiting
	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
