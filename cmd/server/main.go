// Package main is the entry point for the panel server. It constructs all
// dependencies explicitly, starts the background workers and the HTTP
// server, and shuts everything down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"smmpanel/internal/config"
	"smmpanel/internal/handlers"
	"smmpanel/internal/middleware"
	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/repositories/cache"
	"smmpanel/internal/routes"
	"smmpanel/internal/services/catalog"
	"smmpanel/internal/services/fulfillment"
	"smmpanel/internal/services/jobqueue"
	"smmpanel/internal/services/ledger"
	"smmpanel/internal/services/notification"
	"smmpanel/internal/services/provider"
	"smmpanel/internal/services/reconciler"
	"smmpanel/internal/services/topup"
	"smmpanel/internal/utils"
)

func main() {
	config.LoadEnv()

	// Database
	db, err := repositories.Connect(repositories.DBConfig{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		Port:            config.GetEnv("DB_PORT", "5432"),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Name:            config.GetEnv("DB_NAME", "smmpanel"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Connected to database")

	// Redis cache
	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewCacheService(redisClient, 24*time.Hour)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Printf("Failed to close Redis connection: %v", err)
		}
	}()

	// Credential cipher for provider API keys
	cipher, err := utils.NewCipher(
		config.GetEnv("CREDENTIAL_SECRET", ""),
		config.GetEnv("CREDENTIAL_SALT", "smmpanel-credentials"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize credential cipher: %v", err)
	}

	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	providerRepo := repositories.NewProviderRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Services
	ledgerService := ledger.NewService(ledgerRepo)
	catalogService := catalog.NewService(serviceRepo, cacheService)
	gateway := provider.NewClient(cipher, config.GetDurationEnv("PROVIDER_TIMEOUT", 30*time.Second))
	notificationService := notification.NewService(notificationRepo, ledgerRepo)

	runner := jobqueue.NewRunner(jobRepo, jobqueue.Config{
		Workers:      config.GetIntEnv("JOB_WORKERS", 4),
		PollInterval: config.GetDurationEnv("JOB_POLL_INTERVAL", time.Second),
		BaseBackoff:  config.GetDurationEnv("JOB_BASE_BACKOFF", 10*time.Second),
		MaxBackoff:   config.GetDurationEnv("JOB_MAX_BACKOFF", 10*time.Minute),
		MaxAttempts:  config.GetIntEnv("JOB_MAX_ATTEMPTS", 5),
	})

	fulfillmentService := fulfillment.NewService(
		ledgerRepo,
		providerRepo,
		catalogService,
		gateway,
		runner,
		fulfillment.Config{
			SubmitTimeout: config.GetDurationEnv("PROVIDER_SUBMIT_TIMEOUT", 30*time.Second),
		},
		nil,
	)

	runner.Register(models.JobTypeOrderNotify, notificationService.HandleJob)
	runner.Register(models.JobTypeProviderCancel, fulfillment.ProviderCancelHandler(providerRepo, gateway))

	scheduler := reconciler.New(ledgerRepo, providerRepo, gateway, runner, reconciler.Config{
		Interval:     config.GetDurationEnv("RECONCILE_INTERVAL", time.Minute),
		OrderTimeout: config.GetDurationEnv("RECONCILE_ORDER_TIMEOUT", 15*time.Second),
	})

	topupService := topup.NewService(
		ledgerService,
		config.GetEnv("STRIPE_SECRET_KEY", ""),
		config.GetEnv("DEPOSIT_CURRENCY", "usd"),
	)

	// Background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)
	go scheduler.Start(ctx)

	// HTTP server
	app := fiber.New()
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/orders", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("ORDER_RATE_LIMIT", 30),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	authMiddleware := middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", "smmpanel"))
	routes.SetupRoutes(app, routes.Deps{
		Auth:   authMiddleware,
		Orders: handlers.NewOrderHandler(fulfillmentService, catalogService),
		Wallet: handlers.NewWalletHandler(ledgerService, topupService, ledgerRepo),
		Health: handlers.NewHealthHandler(db, cacheService),
	})

	// Graceful shutdown: stop accepting requests, then stop background tasks.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
