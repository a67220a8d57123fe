package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Fields are read once at boot
// so main stays lean and services receive plain values.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	JWTSigningKey string
	JWTTokenTTL   time.Duration

	// Workflow policy knobs. Defaults mirror registry practice: a 30-day
	// public-notice grace period and a flat per-page copying rate.
	GraceDays   int
	PerPageRate float64
	BaseFee     float64

	// SweepInterval controls how often overdue call-for-notice applications
	// are checked for strike-off. Zero disables the background sweeper.
	SweepInterval time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments override every secret-bearing value.
func FromEnv() Config {
	return Config{
		Addr:          envString("COPYDESK_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  envList("KAFKA_BROKERS"),
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTTokenTTL:   envDuration("JWT_TOKEN_TTL", 8*time.Hour),
		GraceDays:     envInt("GRACE_PERIOD_DAYS", 30),
		PerPageRate:   envFloat("PER_PAGE_RATE", 2.50),
		BaseFee:       envFloat("BASE_FEE", 50.00),
		SweepInterval: envDuration("SWEEP_INTERVAL", time.Hour),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
