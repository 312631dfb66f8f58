package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/must-canteen/config"
	"github.com/ikkim/must-canteen/internal/app/controller"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/internal/app/service"
	"github.com/ikkim/must-canteen/internal/db"
	"github.com/ikkim/must-canteen/internal/events"
	"github.com/ikkim/must-canteen/internal/middleware"
	"github.com/ikkim/must-canteen/internal/router"
	"github.com/ikkim/must-canteen/internal/scheduler"
	"github.com/ikkim/must-canteen/internal/storage"
	"github.com/ikkim/must-canteen/internal/websocket"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
	"github.com/ikkim/must-canteen/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Server.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting MUST Canteen server", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"log_level":     logLevel,
		"session_store": cfg.Session.Store,
	})

	// Device persistence
	storeFor, closeStore := openDeviceStore(cfg)
	defer closeStore()

	// Catalog
	stalls, err := repository.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", err, map[string]interface{}{
			"path": cfg.Catalog.Path,
		})
	}
	catalogRepo := repository.NewCatalogRepository(stalls)
	logger.Info("Catalog loaded", map[string]interface{}{
		"path":   cfg.Catalog.Path,
		"stalls": len(stalls),
	})

	// Review events
	gatewayOpts := service.GatewayOptions{
		Order:     service.Latency{Min: cfg.Gateway.OrderLatencyMin, Max: cfg.Gateway.OrderLatencyMax},
		Review:    service.Latency{Min: cfg.Gateway.ReviewLatencyMin, Max: cfg.Gateway.ReviewLatencyMax},
		Like:      service.Latency{Min: cfg.Gateway.LikeLatency, Max: cfg.Gateway.LikeLatency},
		UserQuery: service.Latency{Min: cfg.Gateway.QueryLatency, Max: cfg.Gateway.QueryLatency},
	}
	if cfg.Kafka.Enabled() {
		publisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic))
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("Failed to close review event publisher", err)
			}
		}()
		gatewayOpts.Events = publisher
		logger.Info("Review events enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.ReviewTopic,
		})
	}

	// Initialize services
	gateway := service.NewGatewayService(catalogRepo, gatewayOpts)
	catalogService := service.NewCatalogService(catalogRepo)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	loginLimiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)
	apiLimiter := ratelimit.NewKeyedLimiter(600, 60)

	factory := service.SessionFactory{
		Store:        storeFor,
		Credentials:  repository.NewCredentialRepository(storeFor(repository.SharedScope)),
		Catalog:      catalogRepo,
		Gateway:      gateway,
		LoginLimiter: loginLimiter,
		Push:         hub,
	}
	sessions := service.NewSessionManager(factory.New, cfg.Session.IdleTimeout)

	pruner := scheduler.NewSessionPruneScheduler(sessions, cfg.Session.IdleTimeout, loginLimiter, apiLimiter)
	if err := pruner.Start(cfg.Session.PruneSchedule); err != nil {
		logger.Fatal("Failed to start session prune scheduler", err)
	}
	defer pruner.Stop()

	// Initialize controllers
	var uploadController *controller.UploadController
	if cfg.S3.AccessKeyID != "" {
		s3Storage := storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
		uploadController = controller.NewUploadController(sessions, s3Storage)
	} else {
		logger.Warn("S3 credentials not configured, image uploads disabled")
	}

	r := router.NewRouter(
		controller.NewAuthController(sessions),
		controller.NewCatalogController(catalogService),
		controller.NewCartController(sessions, catalogService),
		controller.NewReviewController(sessions),
		controller.NewFavoritesController(sessions, catalogService),
		uploadController,
		controller.NewWSController(sessions, hub, cfg.CORS.AllowedOrigins),
		middleware.NewDeviceMiddleware(cfg.JWT.Secret, cfg.JWT.DeviceTokenExpiry),
		apiLimiter,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

// openDeviceStore selects the KVStore backend and returns a closer for it.
func openDeviceStore(cfg *config.Config) (func(scope string) repository.KVStore, func()) {
	if cfg.Session.Store == "redis" {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize redis", err)
		}
		client := redis.GetClient()
		storeFor := func(scope string) repository.KVStore {
			return redis.NewDeviceStore(client, scope)
		}
		closer := func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}
		return storeFor, closer
	}

	if err := db.Open(&cfg.Database); err != nil {
		logger.Fatal("Failed to open device store database", err)
	}
	gdb := db.GetDB()
	storeFor := func(scope string) repository.KVStore {
		return repository.NewDeviceStore(gdb, scope)
	}
	closer := func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close device store database", err)
		}
	}
	return storeFor, closer
}
