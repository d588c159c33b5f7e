package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer       string // Issuer claim for session tokens (default: pakgroccrry-auth)
	TokenSecret  string // Required in prod: HMAC secret for session tokens
	DatabaseFile string // Path to SQLite database file (default: ./auth.db)

	RedisAddr     string // Redis address for pending verifications (default: localhost:6379)
	RedisUsername string // Optional: Redis username
	RedisPassword string // Optional: Redis password
	RedisDB       int    // Redis database number (default: 0)

	PendingTTL     time.Duration // Verification code validity window (default: 10m)
	MaxAttempts    int           // Failed attempts allowed per code (default: 5)
	ResendCooldown time.Duration // Suggested client wait before resend (default: 2m)
	SessionTTL     time.Duration // Session lifetime (default: 30 days)

	SenderMode   string        // Email delivery mode (smtp, simulated) (default: simulated)
	SMTPHost     string        // SMTP relay host
	SMTPPort     int           // SMTP relay port (default: 587)
	SMTPUsername string        // SMTP username
	SMTPPassword string        // SMTP password
	SMTPFrom     string        // From address for verification emails
	SimLatency   time.Duration // Simulated sender per-email delay (default: 100ms)
	SimFailRate  float64       // Simulated sender failure fraction (default: 0)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-session sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "pakgroccrry-auth"),
		TokenSecret:  os.Getenv("AUTH_TOKEN_SECRET"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		PendingTTL:     getEnvDurationOrDefault("AUTH_PENDING_TTL", 10*time.Minute),
		MaxAttempts:    getEnvIntOrDefault("AUTH_MAX_ATTEMPTS", 5),
		ResendCooldown: getEnvDurationOrDefault("AUTH_RESEND_COOLDOWN", 2*time.Minute),
		SessionTTL:     getEnvDurationOrDefault("AUTH_SESSION_TTL", 30*24*time.Hour),

		SenderMode:   getEnvOrDefault("AUTH_SENDER_MODE", "simulated"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SimLatency:   getEnvDurationOrDefault("AUTH_SIM_LATENCY", 100*time.Millisecond),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if rateStr := os.Getenv("AUTH_SIM_FAIL_RATE"); rateStr != "" {
		if rate, err := strconv.ParseFloat(rateStr, 64); err == nil {
			cfg.SimFailRate = rate
		}
		// If parsing fails, SimFailRate remains 0 (never fail)
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
