package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries the service configuration loaded from the environment.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	ApprovalTimeout    time.Duration
	ChargeTimeout      time.Duration
	ShippingMaxAttempt int
	ShippingRetryDelay time.Duration

	PaymentFailureRate  float64
	ShippingFailureRate float64
	ProviderLatency     time.Duration
}

// ConfigFromEnv reads the configuration from environment variables,
// falling back to development defaults for the process knobs.
func ConfigFromEnv() Config {
	return Config{
		HTTPPort:   envOr("HTTP_PORT", "8080"),
		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOr("DB_USER", "postgres"),
		DBPassword: envOr("DB_PASSWORD", "postgres"),
		DBName:     envOr("DB_NAME", "fulfillment"),
		DBSslMode:  envOr("DB_SSLMODE", "disable"),

		ApprovalTimeout:    envSeconds("APPROVAL_TIMEOUT_SECONDS", 30),
		ChargeTimeout:      envSeconds("CHARGE_TIMEOUT_SECONDS", 4),
		ShippingMaxAttempt: envInt("SHIPPING_MAX_ATTEMPTS", 3),
		ShippingRetryDelay: envSeconds("SHIPPING_RETRY_DELAY_SECONDS", 2),

		PaymentFailureRate:  envFloat("PAYMENT_FAILURE_RATE", 0),
		ShippingFailureRate: envFloat("SHIPPING_FAILURE_RATE", 0.3),
		ProviderLatency:     envSeconds("PROVIDER_LATENCY_SECONDS", 0),
	}
}

// DSN builds the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
