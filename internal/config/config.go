package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port           string
	DBPath         string
	MaxRooms       int
	StorageTimeout time.Duration
	TracingEnabled bool
	JaegerEndpoint string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           envOrDefault("PORT", "8080"),
		DBPath:         envOrDefault("DB_PATH", "docsync.db"),
		MaxRooms:       envOrDefaultInt("MAX_ROOMS", 1000),
		StorageTimeout: envOrDefaultDuration("STORAGE_TIMEOUT", 5*time.Second),
		TracingEnabled: envOrDefaultBool("TRACING_ENABLED", false),
		JaegerEndpoint: envOrDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
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

func envOrDefaultBool(key string, fallback bool) bool {
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

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
