package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Ticket signing
	SigningKey        string
	OperatorTokenHash string

	// Issuance
	IssueMaxAttempts int

	// Gate scanning
	ScanDebounceWindow time.Duration
	GateScanRateLimit  int

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string
	GateEventChannel   string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	cfg := &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Signing
		SigningKey:        getEnv("SIGNING_KEY", ""),
		OperatorTokenHash: getEnv("OPERATOR_TOKEN_HASH", ""),

		// Issuance
		IssueMaxAttempts: getEnvAsInt("ISSUE_MAX_ATTEMPTS", 3),

		// Gate scanning
		ScanDebounceWindow: getEnvAsDuration("SCAN_DEBOUNCE_WINDOW", "2s"),
		GateScanRateLimit:  getEnvAsInt("GATE_SCAN_RATE_LIMIT", 120),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "entrypass-server"),
		GateEventChannel:   getEnv("GATE_EVENT_CHANNEL", "gate-events"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}

	// The signing key is loaded once at startup and never mutated afterwards.
	if cfg.SigningKey == "" {
		if cfg.Environment != "development" {
			log.Fatal("SIGNING_KEY is required outside development")
		}
		cfg.SigningKey = "dev-only-insecure-signing-key"
		log.Println("SIGNING_KEY not set, using development key")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, fall back to the default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
