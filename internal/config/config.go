package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Scheduling engine
	SlotLengthMinutes   int
	ScheduleHorizonDays int
	BookingCostCredits  int64
	SignupCreditGrant   int64

	// Slot listing cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SlotCacheTTL  time.Duration

	// Video session issuer
	SessionIssuerURL    string
	SessionIssuerAPIKey string
	SessionIssuerFake   bool

	// Admin verification endpoints
	AdminJWTSecret string

	// Per-IP request throttling; RateLimitRPS <= 0 disables it
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS
	CORSAllowedOrigins string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		SlotLengthMinutes:   getEnvAsInt("SLOT_LENGTH_MINUTES", 30),
		ScheduleHorizonDays: getEnvAsInt("SCHEDULE_HORIZON_DAYS", 4),
		BookingCostCredits:  int64(getEnvAsInt("BOOKING_COST_CREDITS", 2)),
		SignupCreditGrant:   int64(getEnvAsInt("SIGNUP_CREDIT_GRANT", 10)),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SlotCacheTTL:  getEnvAsDuration("SLOT_CACHE_TTL", 30*time.Second),

		SessionIssuerURL:    getEnv("SESSION_ISSUER_URL", ""),
		SessionIssuerAPIKey: getEnv("SESSION_ISSUER_API_KEY", ""),
		SessionIssuerFake:   getEnvAsBool("SESSION_ISSUER_FAKE", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "MediMeet"),
	}
}

// SlotLength returns the configured bookable slot length.
func (c *Config) SlotLength() time.Duration {
	return time.Duration(c.SlotLengthMinutes) * time.Minute
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

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
