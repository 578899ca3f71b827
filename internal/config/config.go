// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinExportPasswordLength is the shortest export password Load accepts.
const MinExportPasswordLength = 8

// Config holds the application configuration loaded from environment variables.
type Config struct {
	EncryptionKey        string
	JWTSecret            string
	ListenAddr           string
	DBPath               string
	ExportDir            string
	ExportPurgeDelay     time.Duration
	ExportRetention      time.Duration
	ExportPasswordLength int
	Env                  string
}

// IsDevelopment reports whether raw error detail may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables and returns a validated Config.
// CREDVAULT_ENCRYPTION_KEY and CREDVAULT_JWT_SECRET are required.
// Optional variables with defaults: CREDVAULT_LISTEN_ADDR (127.0.0.1:8080),
// CREDVAULT_DB_PATH (credvault.db), CREDVAULT_EXPORT_DIR (temp/exports),
// CREDVAULT_EXPORT_PURGE_DELAY (5s), CREDVAULT_EXPORT_RETENTION (15m),
// CREDVAULT_EXPORT_PASSWORD_LENGTH (12), CREDVAULT_ENV (production).
func Load() (*Config, error) {
	cfg := &Config{
		EncryptionKey:        os.Getenv("CREDVAULT_ENCRYPTION_KEY"),
		JWTSecret:            os.Getenv("CREDVAULT_JWT_SECRET"),
		ListenAddr:           "127.0.0.1:8080",
		DBPath:               "credvault.db",
		ExportDir:            "temp/exports",
		ExportPurgeDelay:     5 * time.Second,
		ExportRetention:      15 * time.Minute,
		ExportPasswordLength: 12,
		Env:                  "production",
	}

	if cfg.EncryptionKey == "" {
		return nil, errors.New("CREDVAULT_ENCRYPTION_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("CREDVAULT_JWT_SECRET is required")
	}

	for key, dst := range map[string]*string{
		"CREDVAULT_LISTEN_ADDR": &cfg.ListenAddr,
		"CREDVAULT_DB_PATH":     &cfg.DBPath,
		"CREDVAULT_EXPORT_DIR":  &cfg.ExportDir,
		"CREDVAULT_ENV":         &cfg.Env,
	} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	for key, dst := range map[string]*time.Duration{
		"CREDVAULT_EXPORT_PURGE_DELAY": &cfg.ExportPurgeDelay,
		"CREDVAULT_EXPORT_RETENTION":   &cfg.ExportRetention,
	} {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("%s must not be negative, got %s", key, parsed)
		}
		*dst = parsed
	}

	if v, ok := os.LookupEnv("CREDVAULT_EXPORT_PASSWORD_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CREDVAULT_EXPORT_PASSWORD_LENGTH has invalid value %q: %w", v, err)
		}
		if n < MinExportPasswordLength {
			return nil, fmt.Errorf("CREDVAULT_EXPORT_PASSWORD_LENGTH must be at least %d, got %d", MinExportPasswordLength, n)
		}
		cfg.ExportPasswordLength = n
	}

	if cfg.Env != "production" && cfg.Env != "development" {
		return nil, fmt.Errorf("CREDVAULT_ENV must be production or development, got %q", cfg.Env)
	}

	return cfg, nil
}
