package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ResearchWorkers   int
	ResearchQueueSize int
}

func Load() *Config {
	return &Config{
		Port:              getenv("PORT", "8080"),
		Environment:       getenv("ENVIRONMENT", "development"),
		CORSOrigins:       strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "text"),
		RateLimitRequests: getenvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(getenvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		ResearchWorkers:   getenvInt("RESEARCH_WORKERS", 4),
		ResearchQueueSize: getenvInt("RESEARCH_QUEUE_SIZE", 256),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
