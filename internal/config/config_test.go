package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "APP_ENV", "CLIENT_ORIGIN", "CATALOG_FILE", "CATALOG_DSN",
	"SESSION_SECRET", "SESSION_TTL_HOURS", "COOKIE_NAME", "DAILY_SALT",
	"REDIS_ADDR", "REDIS_DB", "ROUND_TTL_MINUTES", "REQUEST_TIMEOUT_SECONDS",
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, "http://localhost:5173", cfg.ClientOrigin)
	assert.Empty(t, cfg.CatalogFile)
	assert.Empty(t, cfg.CatalogDSN)
	assert.Equal(t, "dev_secret_change_me", cfg.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "priceguess_player", cfg.CookieName)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.RoundTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CATALOG_DSN", "./data/catalog.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ROUND_TTL_MINUTES", "5")
	t.Setenv("SESSION_TTL_HOURS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, "./data/catalog.db", cfg.CatalogDSN)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.RoundTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL, "invalid value falls back to default")
}
