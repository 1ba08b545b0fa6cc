package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"dockerlab/internal/ratelimit"
	"dockerlab/internal/util"
	"dockerlab/pkg/cache"
	"dockerlab/pkg/store"
	"dockerlab/services/catalog/internal/app"
	"dockerlab/services/catalog/internal/config"
	"dockerlab/services/catalog/internal/server"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file loaded", "err", envErr)
	}

	provider, err := store.Open(cfg.DatabaseURL,
		store.WithLogLevel(cfg.LogLevel),
		store.WithOpTimeout(time.Duration(cfg.DBTimeoutSeconds)*time.Second),
	)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	defer provider.Close()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureProductSchema(initCtx, provider); err != nil {
		logger.Error("schema initialization failed, continuing", "err", err)
	}
	cancel()

	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Warn("cache disabled", "err", err)
	}
	defer redisCache.Close()

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.CreateRateLimitPerMinute > 0 && redisCache != nil {
		limiter, err = ratelimit.New(redisCache.Client(), ratelimit.Options{
			Prefix:   "catalog:create",
			Limit:    cfg.CreateRateLimitPerMinute,
			Window:   time.Minute,
			FailOpen: true,
		})
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	appCore := app.New(app.Config{
		Products: store.NewProductStore(provider),
		DB:       provider,
		Cache:    redisCache,
		CacheTTL: time.Duration(cfg.CacheTTLSeconds) * time.Second,
	})

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Environment:    cfg.Env,
		Debug:          cfg.Debug(),
		CreateLimiter:  limiter,
		TrustedProxies: trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("catalog server listening", "addr", addr, "environment", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}
