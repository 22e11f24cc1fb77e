package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/priceguess/internal/catalog"
	"github.com/robalobadob/priceguess/internal/config"
	"github.com/robalobadob/priceguess/internal/daily"
	"github.com/robalobadob/priceguess/internal/game"
	"github.com/robalobadob/priceguess/internal/httpserver"
	"github.com/robalobadob/priceguess/internal/session"
	"github.com/robalobadob/priceguess/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load product catalog")
	}
	log.Info().Int("products", cat.Len()).Msg("catalog loaded")

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open round store")
	}
	defer closeStore()

	srv := httpserver.New(httpserver.Options{
		Catalog:      cat,
		Store:        st,
		Sessions:     session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL),
		Random:       game.UniformSelector,
		Daily:        daily.Selector(cfg.DailySalt, nil),
		ClientOrigin: cfg.ClientOrigin,
		CookieName:   cfg.CookieName,
		Secure:       cfg.Production(),
		Timeout:      cfg.RequestTimeout,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting priceguess server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// loadCatalog reads the JSON catalog (file or embedded) and, when CATALOG_DSN
// is set, uses it to seed and then serve from SQLite.
func loadCatalog(ctx context.Context, cfg config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	if cfg.CatalogDSN == "" {
		return cat, nil
	}
	return catalog.LoadSQLite(ctx, cfg.CatalogDSN, cat)
}

// openStore selects Redis when REDIS_ADDR is set, otherwise memory.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return store.NewMemoryStore(cfg.RoundTTL), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("using redis round store")
	return store.NewRedisStore(rdb, cfg.RoundTTL), func() { _ = rdb.Close() }, nil
}
