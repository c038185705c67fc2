package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the API and workers read from the environment.
type Config struct {
	DatabaseURL string
	Port        string

	// AllowSelfVotes disables the owner-cannot-vote check. Never set in production;
	// it exists so demo environments can seed votes onto their own launches.
	AllowSelfVotes bool

	// SnapshotInterval is how often the leaderboard snapshot is rebuilt.
	SnapshotInterval time.Duration
	// FinalizeCheckInterval is how often the finalize worker wakes up. Finalization
	// itself is idempotent, so a short interval is harmless.
	FinalizeCheckInterval time.Duration

	MetricsUser string
	MetricsPass string
}

// LoadFromEnv builds the config from the process environment. Call after
// godotenv.Load so a local .env is honored.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		Port:                  os.Getenv("PORT"),
		AllowSelfVotes:        boolEnv("ALLOW_SELF_VOTES"),
		SnapshotInterval:      durationEnv("SNAPSHOT_INTERVAL", 15*time.Minute),
		FinalizeCheckInterval: durationEnv("FINALIZE_CHECK_INTERVAL", time.Hour),
		MetricsUser:           os.Getenv("METRICS_USER"),
		MetricsPass:           os.Getenv("METRICS_PASS"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.Port == "" {
		cfg.Port = "3333"
	}

	return cfg, nil
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
