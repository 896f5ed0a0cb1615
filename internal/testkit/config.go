// Package testkit provides Postgres and Redis for integration tests, either
// from testcontainers or from externally supplied addresses.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "FXRESOLVER_TEST_"

// Config holds environment-driven configuration for integration test infrastructure.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string        // If set, skip Postgres container.
	RedisAddr      string        // If set, skip Redis container.
	StartupTimeout time.Duration // Max time to wait for containers to become ready.
	KeepContainers bool          // If true, do not terminate containers on shutdown.
}

// LoadConfig reads test infrastructure settings from FXRESOLVER_TEST_*
// environment variables.
func LoadConfig() Config {
	return Config{
		PGImage:        env("PG_IMAGE", "postgres:18.1-alpine", identity),
		RedisImage:     env("REDIS_IMAGE", "redis:8.4.0-alpine", identity),
		PGDSN:          env("PG_DSN", "", identity),
		RedisAddr:      env("REDIS_ADDR", "", identity),
		StartupTimeout: env("STARTUP_TIMEOUT", 90*time.Second, parseDuration),
		KeepContainers: env("KEEP_CONTAINERS", false, strconv.ParseBool),
	}
}

// env reads envPrefix+key through parse, falling back to def when the
// variable is unset or malformed.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	name := envPrefix + key
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s (%v), using default %v\n", raw, name, err, def)
		return def
	}
	return v
}

func identity(s string) (string, error) { return s, nil }

// parseDuration accepts Go durations ("2m") and plain seconds ("120").
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected duration or seconds")
	}
	return time.Duration(secs) * time.Second, nil
}
