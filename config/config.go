// Package config loads the console's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Each field has an environment
// variable and a default.
type Config struct {
	APIURL            string        // GYM_API_URL
	StateDB           string        // GYM_STATE_DB, SQLite file holding the session
	HTTPTimeout       time.Duration // GYM_HTTP_TIMEOUT
	PageSize          int           // GYM_PAGE_SIZE, rows per list page
	ReferencePageSize int           // GYM_REFERENCE_PAGE_SIZE, records loaded for name lookups
	LogLevel          string        // GYM_LOG_LEVEL
	LogFile           string        // GYM_LOG_FILE, empty logs to stderr
	SessionKey        string        // GYM_SESSION_KEY, seals the stored token when set
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		APIURL:            "http://localhost:8080/api/v1",
		StateDB:           "gym-console.db",
		HTTPTimeout:       10 * time.Second,
		PageSize:          10,
		ReferencePageSize: 100,
		LogLevel:          "warn",
	}
}

// Load reads envFiles (missing files are skipped; variables already set
// win) and then the environment.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	var err error
	cfg.APIURL = envStr("GYM_API_URL", cfg.APIURL)
	cfg.StateDB = envStr("GYM_STATE_DB", cfg.StateDB)
	cfg.LogLevel = envStr("GYM_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envStr("GYM_LOG_FILE", cfg.LogFile)
	cfg.SessionKey = os.Getenv("GYM_SESSION_KEY")
	if cfg.HTTPTimeout, err = envDur("GYM_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = envPositive("GYM_PAGE_SIZE", cfg.PageSize); err != nil {
		return Config{}, err
	}
	if cfg.ReferencePageSize, err = envPositive("GYM_REFERENCE_PAGE_SIZE", cfg.ReferencePageSize); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envPositive(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q, want a positive integer", k, v)
	}
	return n, nil
}

func envDur(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil || dur <= 0 {
		return 0, fmt.Errorf("invalid %s: %q, want a duration like 10s", k, v)
	}
	return dur, nil
}
