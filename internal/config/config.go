package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Network  NetworkProfile
	Routing  RoutingConfig
	Jobs     JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// AutoMigrate creates missing tables at startup.
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds the secret used to sign scheduler trigger tokens
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// SecurityConfig holds secrets for internal callers
type SecurityConfig struct {
	// WebhookSecretHash is a bcrypt hash of the status feed shared secret.
	// Empty disables the check.
	WebhookSecretHash string
}

// RoutingConfig holds the bridged directions enabled for the route selector,
// as "source:destination" pairs.
type RoutingConfig struct {
	BridgedDirections []string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	BillingEnabled           bool
	BillingInterval          time.Duration
	BillingBatchSize         int
	BillingConcurrency       int
	PaymentTimeout           time.Duration
	PaymentTimeoutInterval   time.Duration
	ConfirmationPoller       bool
	ConfirmationPollInterval time.Duration
	MinConfirmations         int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paybridge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-this-in-production"),
			TokenExpiry: getEnvAsDuration("CRON_TOKEN_EXPIRY", 365*24*time.Hour),
		},
		Security: SecurityConfig{
			WebhookSecretHash: getEnv("WEBHOOK_SECRET_HASH", ""),
		},
		Network: LoadNetworkProfile(getEnv("NETWORK", NetworkTestnet)),
		Routing: RoutingConfig{
			BridgedDirections: getEnvAsList("BRIDGE_DIRECTIONS", []string{"base:solana"}),
		},
		Jobs: JobsConfig{
			BillingEnabled:           getEnvAsBool("BILLING_JOB_ENABLED", true),
			BillingInterval:          getEnvAsDuration("BILLING_INTERVAL", time.Hour),
			BillingBatchSize:         getEnvAsInt("BILLING_BATCH_SIZE", 500),
			BillingConcurrency:       getEnvAsInt("BILLING_CONCURRENCY", 4),
			PaymentTimeout:           getEnvAsDuration("PAYMENT_TIMEOUT", 2*time.Hour),
			PaymentTimeoutInterval:   getEnvAsDuration("PAYMENT_TIMEOUT_INTERVAL", time.Minute),
			ConfirmationPoller:       getEnvAsBool("CONFIRMATION_POLLER", false),
			ConfirmationPollInterval: getEnvAsDuration("CONFIRMATION_POLL_INTERVAL", 15*time.Second),
			MinConfirmations:         getEnvAsInt("MIN_CONFIRMATIONS", 3),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
