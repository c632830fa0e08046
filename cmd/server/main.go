// Package main is the entry point for the API server.
// It loads configuration, connects Postgres and Redis, loads the fee
// settings and serves HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apega/internal/config"
	applog "apega/internal/logger"
	"apega/internal/metrics"
	"apega/internal/repositories"
	"apega/internal/repositories/cache"
	"apega/internal/routes"
	"apega/internal/services/settings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := applog.Must(cfg.IsProduction())
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("failed to close database connection", zap.Error(err))
			}
		}
	}()
	log.Info("connected to database", zap.String("host", cfg.Database.Host))

	cacheService := cache.NewCacheService(cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), cfg.Wallet.CacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		// The API still works without Redis: settings changes reach other
		// replicas on the next cron refresh and order completion falls back
		// to the database row lock.
		log.Warn("redis unavailable at startup", zap.Error(err))
	}

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	defaults, err := cfg.Fees.Configuration()
	if err != nil {
		return err
	}
	store := settings.NewStore(
		repositories.NewSettingsRepository(db),
		cacheService,
		cacheService,
		defaults,
		log,
		collector,
	)
	if err := store.Load(ctx); err != nil {
		return err
	}
	log.Info("fee settings loaded", zap.Int64("version", store.Snapshot().Version))

	go func() {
		if err := store.Watch(ctx); err != nil {
			log.Error("settings watcher stopped", zap.Error(err))
		}
	}()

	scheduler := cron.New()
	if _, err := store.ScheduleRefresh(scheduler, cfg.Fees.RefreshInterval); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "apega-api",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(collector.Middleware())

	if err := routes.SetupRoutes(app, routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Cache:    cacheService,
		Settings: store,
		Metrics:  collector,
		Gatherer: registry,
		Logger:   log,
	}); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Server.Port))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
