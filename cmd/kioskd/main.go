package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/internal/config"
	"github.com/vanvalenlab/kiosk-client-go/internal/kioskd"
	"github.com/vanvalenlab/kiosk-client-go/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store := newStore(&cfg.Kioskd, logger)
	srv := kioskd.New(&cfg.Kioskd, store, logger)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	if err := srv.Listen(":" + cfg.Kioskd.Port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newStore selects the job store: redis when an address is configured, the
// in-memory store otherwise.
func newStore(cfg *config.KioskdConfig, logger *zap.Logger) kioskd.Store {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory job store")
		return kioskd.NewMemoryStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis not available", zap.Error(err))
	}
	logger.Info("using redis job store", zap.String("addr", cfg.RedisAddr))
	return kioskd.NewRedisStore(rdb)
}
