package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	LogFilePath        string
	CorsAllowedOrigins []string
	TrustedProxies     []string
	Timezone           string
	StoreTimeout       time.Duration
	MailTimeout        time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	NotifyEmail  string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string
	BreakGlassSecret  string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	UploadDir          string

	RedisURL string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Hosted environments inject variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFilePath:        getEnv("LOG_FILE_PATH", "logs/service-portal.log"),
		CorsAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustedProxies:     splitList(getEnv("TRUSTED_PROXIES", "")),
		Timezone:           getEnv("TIMEZONE", "Europe/Berlin"),
		StoreTimeout:       getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		MailTimeout:        getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", ""),

		AdminUsername:     getEnv("ADMIN_USERNAME", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		BreakGlassSecret:  getEnv("BREAK_GLASS_SECRET", ""),

		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),

		RedisURL: getEnv("REDIS_URL", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	current = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.IsProduction() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in production")
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// MailConfigured reports whether outbound mail has a usable transport.
func (c *Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// S3Configured reports whether attachments can be stored in S3.
func (c *Config) S3Configured() bool {
	return c.AWSS3Bucket != "" && c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}

// AdminIdentityConfigured reports whether an operator identity is set via environment.
func (c *Config) AdminIdentityConfigured() bool {
	return c.AdminUsername != "" && (c.AdminPassword != "" || c.AdminPasswordHash != "")
}

// Location returns the business timezone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return current
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
