// Package config loads gateway configuration from the environment.
// Every knob has a default suitable for local development; production
// deployments override via environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the gateway.
type Config struct {
	// HTTP listener
	Hostname string
	Port     int

	// Valkey (Redis-protocol) cache backend
	ValkeyHost     string
	ValkeyPort     int
	ValkeyPassword string
	ValkeyDatabase int

	// Upstream AT Protocol service
	ATProtoServiceURL string
	ATProtoPDSURL     string

	// Observability
	LogLevel       string
	OTLPEndpoint   string
	TracingEnabled bool
	MetricsEnabled bool

	Environment string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Hostname:          getEnv("HOSTNAME", "0.0.0.0"),
		Port:              getEnvInt("PORT", 8080),
		ValkeyHost:        getEnv("VALKEY_HOST", "localhost"),
		ValkeyPort:        getEnvInt("VALKEY_PORT", 6379),
		ValkeyPassword:    getEnv("VALKEY_PASSWORD", ""),
		ValkeyDatabase:    getEnvInt("VALKEY_DATABASE", 0),
		ATProtoServiceURL: getEnv("ATPROTO_SERVICE_URL", "https://bsky.social"),
		ATProtoPDSURL:     getEnv("ATPROTO_PDS_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:      getEnv("OTLP_ENDPOINT", ""),
		TracingEnabled:    getEnvBool("TRACING_ENABLED", true),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

// ValkeyAddr returns the host:port of the Valkey server.
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%d", c.ValkeyHost, c.ValkeyPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
