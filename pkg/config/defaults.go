// Package config provides centralized default values for TapX
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()
}

// getEnvInt reads environment variable with fallback to default
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvString reads environment variable with string fallback
func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvBool reads environment variable as boolean with fallback
func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration reads environment variable as duration with fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		// Try as integer seconds
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// Server Configuration
var (
	Port               = getEnvString("PORT", "8080")
	ServerReadTimeout  = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	ServerIdleTimeout  = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
)

// Database Configuration
var (
	SQLitePath    = getEnvString("SQLITE_PATH", "db/tapx.db")
	TursoDatabase = getEnvString("TURSO_DATABASE_URL", "")
	TursoToken    = getEnvString("TURSO_AUTH_TOKEN", "")

	DBMaxOpenConns           = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns           = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)
)

// Auth Configuration
var (
	JWTSecret     = getEnvString("JWT_SECRET", "")
	AESKey        = getEnvString("AES_KEY", "")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 30*24*time.Hour)
	BcryptCost    = getEnvInt("BCRYPT_COST", 10)
	OTPLifetime   = getEnvDuration("OTP_LIFETIME", 10*time.Minute)
	OTPSweep      = getEnvDuration("OTP_SWEEP_PERIOD", time.Minute)
)

// Block catalog cache
var (
	BlockCacheTTL   = getEnvDuration("BLOCK_CACHE_TTL", 30*time.Second)
	BlockCacheSweep = getEnvDuration("BLOCK_CACHE_SWEEP", 5*time.Minute)
)

// Journey feed (SSE) Configuration
var (
	MaxFeedConnections           = getEnvInt("MAX_FEED_CONNECTIONS", 1000)
	MaxFeedConnectionsPerProfile = getEnvInt("MAX_FEED_CONNECTIONS_PER_PROFILE", 3)
	FeedHeartbeatSeconds         = getEnvInt("FEED_HEARTBEAT_SECONDS", 30)
	FeedInactivityMinutes        = getEnvInt("FEED_INACTIVITY_MINUTES", 5)
	FeedMaxDurationMinutes       = getEnvInt("FEED_MAX_DURATION_MINUTES", 30)
)

// Task runner Configuration
var (
	TaskMaxInFlight  = getEnvInt("TASK_MAX_IN_FLIGHT", 32)
	TaskDrainTimeout = getEnvDuration("TASK_DRAIN_TIMEOUT", 5*time.Second)
)

// Email Configuration
var (
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom    = getEnvString("EMAIL_FROM", "TapX <notify@tapx.app>")
	EmailEnabled = getEnvBool("EMAIL_ENABLED", false)
)

// Logging Configuration
var (
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile    = getEnvBool("LOG_TO_FILE", false)
	LogJSON      = getEnvBool("LOG_JSON", true)
	LogLevel     = getEnvString("LOG_LEVEL", "info")
)
