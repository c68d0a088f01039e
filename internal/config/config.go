package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // postgres:// or mysql DSN, driver is auto-detected
	AutoMigrate bool   // create tables on startup
	Version     string
	LogLevel    string

	OpenAIKey                string
	AzureOpenAIEndpoint      string
	AzureOpenAIKey           string
	AzureOpenAIGPTDeployment string
	OpenAIModel              string
	OpenAIMaxTokens          int
	OpenAITemperature        float32
	OpenAITimeout            int // per-call timeout in seconds
	OpenAIMaxRetries         int
	OpenAIRetryBaseMS        int // backoff base in milliseconds, doubled per attempt

	BreakerFailureThreshold int // consecutive failed calls before the provider circuit opens
	BreakerOpenSeconds      int

	SendGridAPIKey string
	FromEmail      string
	FromName       string

	BatchErrorLimit int // errors kept in a batch generation report
	CacheTTLSeconds int

	// Operator credentials guarding the mutating routes. Empty disables auth.
	AdminUsername string
	AdminPassword string
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		AzureOpenAIEndpoint:      os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:           os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIGPTDeployment: getEnv("AZURE_OPENAI_GPT_DEPLOYMENT", "gpt-4o"),
		OpenAIModel:              getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIMaxTokens:          getEnvInt("OPENAI_MAX_TOKENS", 2000),
		OpenAITemperature:        getEnvFloat("OPENAI_TEMPERATURE", 0.8),
		OpenAITimeout:            getEnvInt("OPENAI_TIMEOUT", 30),
		OpenAIMaxRetries:         getEnvInt("OPENAI_MAX_RETRIES", 3),
		OpenAIRetryBaseMS:        getEnvInt("OPENAI_RETRY_BASE_MS", 1000),

		BreakerFailureThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerOpenSeconds:      getEnvInt("BREAKER_OPEN_SECONDS", 30),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      getEnv("FROM_EMAIL", "noreply@webinarwins.com"),
		FromName:       getEnv("FROM_NAME", "WebinarWins"),

		BatchErrorLimit: getEnvInt("BATCH_ERROR_LIMIT", 10),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 60),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	return config
}

// UseAzureOpenAI reports whether Azure OpenAI credentials are configured
func (c *Config) UseAzureOpenAI() bool {
	return c.AzureOpenAIEndpoint != "" && c.AzureOpenAIKey != ""
}

// HasOpenAIFallback reports whether a platform OpenAI key is configured
func (c *Config) HasOpenAIFallback() bool {
	return c.OpenAIKey != ""
}

// RequestTimeout returns the per-call generator timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenAITimeout) * time.Second
}

// RetryBaseDelay returns the first backoff delay of the generation retry policy
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.OpenAIRetryBaseMS) * time.Millisecond
}

// CacheTTL returns the TTL for cached webinar responses
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float32 with a default fallback
func getEnvFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "webinarwins").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
