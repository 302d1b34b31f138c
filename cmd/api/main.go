package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ferhaspert/belo-challenge/internal/adapter/handler"
	"github.com/ferhaspert/belo-challenge/internal/adapter/storage"
	"github.com/ferhaspert/belo-challenge/internal/adapter/storage/memory"
	"github.com/ferhaspert/belo-challenge/internal/core/config"
	"github.com/ferhaspert/belo-challenge/internal/core/domain"
	"github.com/ferhaspert/belo-challenge/internal/core/gate"
	"github.com/ferhaspert/belo-challenge/internal/core/ledger"
	"github.com/ferhaspert/belo-challenge/internal/core/notifications"
	"github.com/ferhaspert/belo-challenge/internal/core/worker"
)

// backend bundles the store with the queue and idempotency views of it.
type backend interface {
	domain.Store
	domain.EventQueue
	domain.IdempotencyStore
}

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// 2. Setup Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage
	var store backend
	var closers []func()

	switch cfg.Store {
	case config.StoreMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		if err := storage.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("Database migration failed", "error", err)
			os.Exit(1)
		}

		dbPool, err := storage.ConnectDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			slog.Error("Database connection failed", "error", err)
			os.Exit(1)
		}
		closers = append(closers, dbPool.Close)
		store = storage.NewPostgresStore(dbPool)
	}

	// 4. Admission gate
	var g gate.Gate = gate.NewLocal()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("Redis connection failed", "error", err)
			os.Exit(1)
		}
		closers = append(closers, func() { _ = client.Close() })
		g = gate.NewRedis(client, gate.DefaultLockExpiry)
		slog.Info("Using Redis admission gate", "addr", cfg.RedisAddr)
	}

	// 5. Ledger
	var opts []ledger.Option
	if cfg.WebhookURL != "" {
		opts = append(opts, ledger.WithEventURL(cfg.WebhookURL))
	}
	svc := ledger.NewService(store, g, opts...)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	handler.RegisterRoutes(app, svc, store)

	// 7. Start Worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if cfg.WebhookURL == "" {
			return
		}
		sender := notifications.NewSender(cfg.WebhookSecret, 5*time.Second, 5, 30*time.Second)
		worker.NewProcessor(store, sender, cfg.WebhookPollInterval).Run(workerCtx)
	}()

	go func() {
		slog.Info("Server starting", "env", cfg.Env, "port", cfg.Port, "store", cfg.Store)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
			stop()
		}
	}()

	// Block here until we receive a stop signal
	<-ctx.Done()
	slog.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	stopWorker()
	<-workerDone

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	slog.Info("Server exited successfully")
}
