package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// ExtensionJWTSecret signs the chrome-extension bearer tokens.
	ExtensionJWTSecret     string
	ExtensionTokenTTL      time.Duration
	CORSAllowedOrigins     []string
	RealtimeEnabled        bool
	RealtimeReconnectDelay time.Duration
	RevealPendingTTL       time.Duration

	LushaBaseURL string
	LushaAPIKey  string

	UseMemoryQueue     bool
	EnrichmentQueueURL string
	WorkerCount        int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ExtensionJWTSecret:     getEnv("EXTENSION_JWT_SECRET", ""),
		ExtensionTokenTTL:      getEnvAsDuration("EXTENSION_TOKEN_TTL", 24*time.Hour),
		CORSAllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RealtimeEnabled:        getEnvAsBool("REALTIME_ENABLED", true),
		RealtimeReconnectDelay: getEnvAsDuration("REALTIME_RECONNECT_DELAY", 3*time.Second),
		RevealPendingTTL:       getEnvAsDuration("REVEAL_PENDING_TTL", 12*time.Hour),

		LushaBaseURL: getEnv("LUSHA_BASE_URL", "https://api.lusha.com"),
		LushaAPIKey:  getEnv("LUSHA_API_KEY", ""),

		UseMemoryQueue:     getEnvAsBool("USE_MEMORY_QUEUE", false),
		EnrichmentQueueURL: getEnv("ENRICHMENT_QUEUE_URL", ""),
		WorkerCount:        getEnvAsInt("WORKER_COUNT", 2),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
