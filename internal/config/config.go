// Package config reads server configuration from the environment.
// Call godotenv.Load before Load to pick up a local .env file.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable of the server.
type Config struct {
	Port           string
	LogLevel       string
	Env            string
	ClientOrigin   string
	CatalogFile    string        // JSON catalog; empty uses the embedded default
	CatalogDSN     string        // SQLite catalog; takes precedence over CatalogFile
	SessionSecret  string        // HS256 key for player tokens
	SessionTTL     time.Duration // player token lifetime
	CookieName     string
	DailySalt      string
	RedisAddr      string // empty selects the in-memory round store
	RedisDB        int
	RoundTTL       time.Duration
	RequestTimeout time.Duration
}

// Production reports whether secure cookie attributes should be used.
func (c Config) Production() bool { return c.Env == "production" }

// Load returns the configuration with defaults applied.
func Load() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Env:            getEnv("APP_ENV", "dev"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		CatalogFile:    os.Getenv("CATALOG_FILE"),
		CatalogDSN:     os.Getenv("CATALOG_DSN"),
		SessionSecret:  getEnv("SESSION_SECRET", "dev_secret_change_me"),
		SessionTTL:     time.Duration(getInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieName:     getEnv("COOKIE_NAME", "priceguess_player"),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        getInt("REDIS_DB", 0),
		RoundTTL:       time.Duration(getInt("ROUND_TTL_MINUTES", 60)) * time.Minute,
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getInt parses k as an integer, falling back to def when unset or invalid.
func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
