package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"room-reservation/pkg/circuitbreaker"
	"room-reservation/pkg/config"
	"room-reservation/pkg/database"
	"room-reservation/pkg/reservations"
	"room-reservation/pkg/roomlock"
	"room-reservation/pkg/store"
)

var (
	db      *gorm.DB
	manager *reservations.Manager
	logger  = zap.NewNop()
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err = newLogger(cfg)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting reservation service", zap.String("env", cfg.Env))

	db, err = database.Open(cfg.DB, logger, cfg.IsDev())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	locker := newLocker(cfg)
	reservationStore := store.New(db, locker).WithLockWait(cfg.RoomLockWait)
	manager = reservations.NewManager(reservationStore, logger.Named("reservations")).
		WithDefaultPageSize(cfg.DefaultPageSize)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg.CORSOrigins),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("reservation service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDev() {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

// newLocker returns a Redis-backed room lock that falls back to an in-process
// lock while Redis is failing, or just the in-process lock without Redis.
func newLocker(cfg config.Config) roomlock.Locker {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process room locks")
		return roomlock.NewLocal()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed, room locks will fall back to in-process", zap.Error(err))
	} else {
		logger.Info("redis room locks enabled", zap.String("addr", cfg.RedisAddr))
	}

	return roomlock.NewFailover(
		roomlock.NewRedis(client, cfg.RoomLockTTL),
		roomlock.NewLocal(),
		circuitbreaker.NewCircuitBreaker(5, 30*time.Second),
		logger.Named("roomlock"),
	)
}
