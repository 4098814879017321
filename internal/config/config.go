// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shelfwise/internal/cache"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	ReportsDir  string

	// OTLPEndpoint is the collector address for trace export. Empty
	// disables tracing.
	OTLPEndpoint string

	// CacheTTLs are the per-namespace response cache lifetimes. A zero
	// value for any of them disables caching for that namespace.
	CacheTTLs cache.TTLs
}

// Load reads the .env file if present, then the process environment.
// DATABASE_URL is the only required setting.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	ttls := cache.DefaultTTLs()
	var err error
	if ttls.Books, err = durationEnv("CACHE_TTL_BOOKS", ttls.Books); err != nil {
		return nil, err
	}
	if ttls.Borrowers, err = durationEnv("CACHE_TTL_BORROWERS", ttls.Borrowers); err != nil {
		return nil, err
	}
	if ttls.Borrowings, err = durationEnv("CACHE_TTL_BORROWINGS", ttls.Borrowings); err != nil {
		return nil, err
	}
	if ttls.Overdue, err = durationEnv("CACHE_TTL_OVERDUE", ttls.Overdue); err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:     withDefault(os.Getenv("HTTP_ADDR"), ":3000"),
		DatabaseURL:  dbURL,
		ReportsDir:   withDefault(os.Getenv("REPORTS_DIR"), "exports"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		CacheTTLs:    ttls,
	}, nil
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, raw)
	}
	return d, nil
}
