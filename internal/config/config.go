package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string
	ContentPath    string

	// Signed-session tokens for the JSON API
	SessionSecret   string
	SessionDuration time.Duration

	// Remote profile service (backend-as-a-service)
	RemoteBaseURL       string
	RemoteAPIKey        string
	RemoteAccessToken   string
	RemoteTokenURL      string
	RemoteClientID      string
	RemoteClientSecret  string
	RemoteTimeout       time.Duration
	RemoteUpsertTimeout time.Duration

	// Weekly digest email via SES
	AWSRegion       string
	DigestFromEmail string
	DigestFromName  string
	DigestSendHour  int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:    getEnv("DB_URL", ""),
		DatabasePath:   getEnv("DB_PATH", "./lexiquest.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		ContentPath:    getEnv("CONTENT_PATH", "./content/units.json"),

		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionDuration: 30 * 24 * time.Hour,

		RemoteBaseURL:       getEnv("REMOTE_BASE_URL", ""),
		RemoteAPIKey:        getEnv("REMOTE_API_KEY", ""),
		RemoteAccessToken:   getEnv("REMOTE_ACCESS_TOKEN", ""),
		RemoteTokenURL:      getEnv("REMOTE_TOKEN_URL", ""),
		RemoteClientID:      getEnv("REMOTE_CLIENT_ID", ""),
		RemoteClientSecret:  getEnv("REMOTE_CLIENT_SECRET", ""),
		RemoteTimeout:       10 * time.Second,
		RemoteUpsertTimeout: 60 * time.Second,

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		DigestFromEmail: getEnv("DIGEST_FROM_EMAIL", ""),
		DigestFromName:  getEnv("DIGEST_FROM_NAME", "LexiQuest"),
		DigestSendHour:  getEnvInt("DIGEST_SEND_HOUR", 8),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
