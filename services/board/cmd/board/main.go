package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"dockerlab/internal/util"
	"dockerlab/pkg/store"
	"dockerlab/services/board/internal/app"
	"dockerlab/services/board/internal/config"
	"dockerlab/services/board/internal/server"
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

	provider, err := store.Open(cfg.Database.DSN(),
		store.WithLogLevel(cfg.LogLevel),
		store.WithOpTimeout(time.Duration(cfg.Database.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	defer provider.Close()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureMessageSchema(initCtx, provider); err != nil {
		logger.Error("schema initialization failed, continuing", "err", err)
	}
	cancel()

	target := cfg.Database.Target()
	httpServer, err := server.New(server.Config{
		App: app.New(app.Config{
			Messages: store.NewMessageStore(provider),
			DB:       provider,
		}),
		Environment: cfg.Env,
		Debug:       cfg.Debug(),
		Port:        cfg.Port,
		Database: server.DatabaseInfo{
			Host: target.Host,
			Name: target.Name,
			User: target.User,
		},
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

	slog.Info("board server listening", "addr", addr, "environment", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}
