package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activityhub/internal/cache"
	"activityhub/internal/config"
	"activityhub/internal/database"
	"activityhub/internal/repositories"
	"activityhub/internal/router"
	"activityhub/internal/services"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("Starting ActivityHub application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	db, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database initialized successfully")

	cacheInstance, err := cache.NewCache(&cache.Config{
		Provider:      cfg.Cache.Provider,
		TTL:           cfg.Cache.TTL,
		RedisURL:      cfg.Cache.RedisURL,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPassword: cfg.Cache.RedisPassword,
		PoolSize:      cfg.Cache.PoolSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}
	defer cacheInstance.Close()

	repos := repositories.NewCollection(db, logger)
	serviceCollection := services.NewCollection(repos, cacheInstance, db, cfg, logger)

	handler := router.New(&router.Dependencies{
		Services: serviceCollection,
		DB:       db,
		Cache:    cacheInstance,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	go runScheduler(schedulerCtx, serviceCollection.Scheduler, cfg.Scheduler, logger)

	logger.Info("Application started successfully",
		zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)),
		zap.String("health_check", "/health"),
	)

	<-quit
	logger.Info("Shutting down application...")
	stopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server shutdown completed")
	}

	logger.Info("Application shutdown completed")
}

// runScheduler drives the task registry on a fixed tick until ctx ends.
// The registry itself decides which tasks are due on each tick.
func runScheduler(ctx context.Context, scheduler services.SchedulerService, cfg config.SchedulerConfig, logger *zap.Logger) {
	tick := cfg.DispatchInterval
	if tick <= 0 {
		tick = time.Minute
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.Info("Scheduler loop started", zap.Duration("tick", tick))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler loop stopped")
			return
		case now := <-ticker.C:
			scheduler.RunDue(ctx, now, 0)
		}
	}
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
