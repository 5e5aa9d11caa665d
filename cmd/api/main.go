// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"github.com/your-org/jewelry-storefront/internal/domain/notification"
	"github.com/your-org/jewelry-storefront/internal/domain/order"
	"github.com/your-org/jewelry-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/jewelry-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/jewelry-storefront/internal/interfaces/http"
	"github.com/your-org/jewelry-storefront/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg)
	appLog.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to database
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Health check
	if err := db.Health(); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}
	if err := redisClient.Health(); err != nil {
		log.Fatalf("Redis health check failed: %v", err)
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB())
	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		log.Printf("Warning: Index creation failed: %v", err)
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.Printf("Warning: Data seeding failed: %v", err)
		}
	}

	appLog.Info("✅ All systems operational!")

	// Background workers share one context; cancelling it on shutdown
	// stops the poller and the session sweeper deterministically.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	// Cart session registry with a periodic sweep of idle sessions
	registry := cart.NewRegistry(db.GetDB(), redisClient.GetClient(), cfg, appLog)
	go func() {
		ticker := time.NewTicker(cfg.Cart.SessionTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				registry.Sweep(cfg.Cart.SessionTTL)
			}
		}
	}()

	// Order change-detection poller feeding the notification channel
	poller := order.NewPoller(
		order.NewGormSignalSource(db.GetDB()),
		notification.NewPublisher(redisClient.GetClient(), cfg.Poller.EventChannel, appLog),
		cfg.Poller.Interval,
		appLog,
	)
	go poller.Run(workerCtx)

	// Create and start HTTP server
	server := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), registry, appLog)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("👋 Shutting down gracefully...")
	stopWorkers()

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLog.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	appLog.Info("✅ Server shutdown completed")
}
