// Package config loads process settings from the environment, after
// applying an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvProduction is the COLLECT_ENV value that enables production checks.
const EnvProduction = "production"

// Config holds process settings.
type Config struct {
	Addr          string
	DBPath        string
	Env           string
	LogLevel      slog.Level
	CSRFKey       []byte
	SlowQueryMs   int
	SlowRequestMs int
	// CSRFKeyGenerated is set when no key was configured and a random one is in use.
	CSRFKeyGenerated bool
}

// IsProduction reports whether production checks apply.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment win over .env values.
// PRE: none
// POST: Returns a complete Config or the first invalid setting
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from COLLECT_* variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:   envOrDefault("COLLECT_ADDR", ":8080"),
		DBPath: envOrDefault("COLLECT_DB_PATH", "collect.db"),
		Env:    envOrDefault("COLLECT_ENV", "development"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("COLLECT_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("COLLECT_LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.SlowQueryMs, err = positiveInt("COLLECT_SLOW_QUERY_MS", 50); err != nil {
		return Config{}, err
	}
	if cfg.SlowRequestMs, err = positiveInt("COLLECT_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}

	if cfg.CSRFKey, cfg.CSRFKeyGenerated, err = loadCSRFKey(cfg.IsProduction()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadCSRFKey reads COLLECT_CSRF_KEY (hex-encoded, 32 bytes).
// Production requires it; elsewhere a random key is generated per startup.
func loadCSRFKey(production bool) ([]byte, bool, error) {
	if keyHex := strings.TrimSpace(os.Getenv("COLLECT_CSRF_KEY")); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, false, errors.New("COLLECT_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, false, nil
	}
	if production {
		return nil, false, errors.New("COLLECT_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, true, nil
}

func positiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
