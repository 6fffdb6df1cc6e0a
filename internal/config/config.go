package config

import (
	"log"
	"os"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	RedisURL    string

	LogLevel  string
	LogFormat string

	GeminiAPIKey   string
	InferenceURL   string
	InferenceModel string
	InferenceStub  bool

	DigestSchedule string
	DigestTimezone string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Env:         getEnvWithDefault("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		InferenceURL:   os.Getenv("INFERENCE_URL"),
		InferenceModel: getEnvWithDefault("INFERENCE_MODEL", "gemini-1.5-flash"),
		InferenceStub:  os.Getenv("INFERENCE_STUB") == "true",

		DigestSchedule: getEnvWithDefault("DIGEST_SCHEDULE", "0 9 * * 1"),
		DigestTimezone: getEnvWithDefault("DIGEST_TIMEZONE", "UTC"),
	}

	// Without an API key the inference client cannot reach the model; fall
	// back to stub mode so the service still works end to end.
	if cfg.GeminiAPIKey == "" && !cfg.InferenceStub {
		cfg.InferenceStub = true
		log.Println("WARNING: GEMINI_API_KEY not set, inference client running in stub mode")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
