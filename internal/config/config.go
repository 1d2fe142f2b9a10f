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

	WellAppointBaseURL string
	ProviderUsername   string
	UpstreamTimeout    time.Duration
	SlotFetchTimeout   time.Duration
	SubmitTimeout      time.Duration

	AuthJWTSecret string

	UseMemorySessions bool
	SessionTTL        time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WellAppointBaseURL: getEnv("WELLAPPOINT_BASE_URL", "http://localhost:3000"),
		ProviderUsername:   getEnv("PROVIDER_USERNAME", ""),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		SlotFetchTimeout:   getEnvAsDuration("SLOT_FETCH_TIMEOUT", 30*time.Second),
		SubmitTimeout:      getEnvAsDuration("SUBMIT_TIMEOUT", 30*time.Second),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		UseMemorySessions: getEnvAsBool("USE_MEMORY_SESSIONS", false),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
