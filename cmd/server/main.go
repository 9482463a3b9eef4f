package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/controller"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/internal/db"
	"github.com/savoryhq/savory-backend/internal/middleware"
	"github.com/savoryhq/savory-backend/internal/router"
	"github.com/savoryhq/savory-backend/internal/scheduler"
	"github.com/savoryhq/savory-backend/internal/storage"
	"github.com/savoryhq/savory-backend/internal/websocket"
	"github.com/savoryhq/savory-backend/pkg/logger"
	"github.com/savoryhq/savory-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting SAVORY Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Initialize redis cache (optional)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Failed to connect to redis, caching disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
		}
	}

	// Initialize photo storage
	var photoStorage storage.Storage
	if cfg.Upload.Driver == "s3" {
		photoStorage = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	} else {
		local, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL)
		if err != nil {
			logger.Fatal("Failed to initialize upload storage", err)
		}
		photoStorage = local
	}

	// Start the activity feed hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	storeRepo := repository.NewStoreRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, &cfg.JWT)
	storeService := service.NewStoreService(storeRepo, userRepo, hub, cfg.Redis.CacheTTL)
	reviewService := service.NewReviewService(reviewRepo, storeRepo, hub)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	storeController := controller.NewStoreController(storeService)
	reviewController := controller.NewReviewController(reviewService)
	uploadController := controller.NewUploadController(photoStorage, &cfg.Upload)
	feedController := controller.NewFeedController(hub)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the maintenance scheduler
	maintenance := scheduler.NewMaintenanceScheduler(userRepo, storeService)
	if err := maintenance.Start(); err != nil {
		logger.Error("Failed to start maintenance scheduler", err)
	}
	defer maintenance.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		storeController,
		reviewController,
		uploadController,
		feedController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
