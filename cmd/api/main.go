package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stagelink/marketplace-api/docs"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/config"
	"github.com/stagelink/marketplace-api/internal/database"
	"github.com/stagelink/marketplace-api/internal/datawarehouse"
	"github.com/stagelink/marketplace-api/internal/http/handler"
	"github.com/stagelink/marketplace-api/internal/http/middleware"
	"github.com/stagelink/marketplace-api/internal/http/router"
	"github.com/stagelink/marketplace-api/internal/jobs"
	"github.com/stagelink/marketplace-api/internal/logger"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/internal/storage"
	"go.uber.org/zap"
)

// @title Stagelink Marketplace API
// @version 1.0
// @description Offer negotiation and contract API for the event services marketplace

// @contact.name API Support
// @contact.email support@stagelink.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "marketplace-staging.stagelink.io"
	case "production":
		docs.SwaggerInfo.Host = "api.stagelink.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration with secrets resolved
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	contractArchive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Contract archive storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Settlement warehouse is optional; the app runs without it
	var warehouse *datawarehouse.Client
	if cfg.Warehouse.Enabled {
		warehouse, err = datawarehouse.NewClient(&cfg.Warehouse, log)
		if err != nil {
			log.Warn("Settlement warehouse connection failed, continuing without it",
				zap.Error(err),
			)
		}
	}

	// Repositories
	offerRepo := repository.NewOfferRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Services
	offerService := service.NewOfferService(offerRepo, eventRepo, cfg.Jobs.DefaultOfferValidityDays, log)
	negotiationService := service.NewNegotiationService(offerRepo, log)
	contractService := service.NewContractService(offerRepo, contractArchive, log)
	eventService := service.NewEventService(eventRepo, log)
	dashboardService := service.NewDashboardService(offerRepo, log)
	financeService := service.NewFinanceService(offerRepo, log)
	analyticsService := service.NewAnalyticsService(offerRepo, log)

	// Auth and middleware
	tokenValidator, err := auth.NewTokenValidator(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token validator: %w", err)
	}
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(db, log)
	eventHandler := handler.NewEventHandler(eventService, log)
	offerHandler := handler.NewOfferHandler(offerService, log)
	negotiationHandler := handler.NewNegotiationHandler(negotiationService, log)
	contractHandler := handler.NewContractHandler(contractService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, financeService, analyticsService, log)
	watchHandler := handler.NewWatchHandler(offerService, log)

	rt := router.NewRouter(
		cfg,
		log,
		tokenValidator,
		rateLimiter,
		healthHandler,
		eventHandler,
		offerHandler,
		negotiationHandler,
		contractHandler,
		dashboardHandler,
		watchHandler,
	)

	// Background jobs: the expiry sweep always runs; the settlement sync
	// only when the warehouse is connected
	scheduler := jobs.NewScheduler(log)

	expiryJob := jobs.NewExpiryJob(offerRepo, negotiationService, log)
	if err := scheduler.AddJob("offer-expiry-sweep", cfg.Jobs.ExpirySweepCron, func() {
		expiryJob.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register expiry sweep: %w", err)
	}

	if warehouse != nil {
		syncJob := jobs.NewSettlementSyncJob(offerRepo, warehouse, log)
		if err := scheduler.AddJob("settlement-warehouse-sync", cfg.Jobs.WarehouseSyncCron, func() {
			syncJob.Run(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register settlement sync: %w", err)
		}
	}

	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if warehouse != nil {
			if err := warehouse.Close(); err != nil {
				log.Warn("Error closing settlement warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
