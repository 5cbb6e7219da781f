package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medilab/lab-api/internal/config"
	"github.com/medilab/lab-api/internal/email"
	authHandler "github.com/medilab/lab-api/internal/handler/auth"
	catalogHandler "github.com/medilab/lab-api/internal/handler/catalog"
	healthHandler "github.com/medilab/lab-api/internal/handler/health"
	laborderHandler "github.com/medilab/lab-api/internal/handler/laborder"
	listingHandler "github.com/medilab/lab-api/internal/handler/listing"
	prescriptionHandler "github.com/medilab/lab-api/internal/handler/prescription"
	recordHandler "github.com/medilab/lab-api/internal/handler/record"
	"github.com/medilab/lab-api/internal/middleware"
	"github.com/medilab/lab-api/internal/repository/postgres"
	"github.com/medilab/lab-api/internal/router"
	authService "github.com/medilab/lab-api/internal/service/auth"
	catalogService "github.com/medilab/lab-api/internal/service/catalog"
	ledgerService "github.com/medilab/lab-api/internal/service/ledger"
	lifecycleService "github.com/medilab/lab-api/internal/service/lifecycle"
	orderService "github.com/medilab/lab-api/internal/service/order"
	queryService "github.com/medilab/lab-api/internal/service/query"
	reportService "github.com/medilab/lab-api/internal/service/report"
	"github.com/medilab/lab-api/pkg/auth"
	"github.com/medilab/lab-api/pkg/logger"
	redisBroker "github.com/medilab/lab-api/pkg/messaging/redis"
	"github.com/medilab/lab-api/pkg/metrics"
	"github.com/medilab/lab-api/pkg/security"
	"github.com/medilab/lab-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	zl := *appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("lab_api", "core")

	// Repositories
	recordStore := postgres.NewRecordStore(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	orderRepo := postgres.NewLabOrderRepository(db)
	prescriptionRepo := postgres.NewPrescriptionTestRepository(db)
	listingRepo := postgres.NewListingRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	notifier := email.NewSender(cfg.SMTP, zl)
	lifecycleSvc := lifecycleService.NewService(recordStore, notifier, m, zl)
	ledgerSvc := ledgerService.NewService(recordStore, paymentRepo, m, zl)
	fileStore, err := reportService.NewDiskStore(cfg.Storage.ReportDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize report storage")
	}
	reportSvc := reportService.NewService(recordStore, fileStore, m, zl)
	catalogSvc := catalogService.NewService(catalogRepo, cfg.Catalog.CacheTTL, cfg.Catalog.CleanupInterval, zl)
	orderSvc := orderService.NewService(orderRepo, prescriptionRepo, catalogSvc, zl)
	querySvc := queryService.NewService(listingRepo, zl)

	tokens := auth.NewJWTService(auth.JWTConfig{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(staffRepo, hasher, tokens, zl)

	// HTTP layer
	authMW := middleware.NewAuthMiddleware(tokens)
	r := router.New(authMW, router.Handlers{
		Auth:         authHandler.NewHandler(authSvc),
		Catalog:      catalogHandler.NewHandler(catalogSvc),
		Health:       healthHandler.NewHandler(db),
		LabOrder:     laborderHandler.NewHandler(orderSvc),
		Prescription: prescriptionHandler.NewHandler(orderSvc),
		Record:       recordHandler.NewHandler(lifecycleSvc, ledgerSvc, reportSvc),
		Listing:      listingHandler.NewHandler(querySvc),
	}, router.Config{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORS:           middleware.DefaultCORSConfig(),
		MetricsPrefix:  "lab_api",
	}, zl)
	r.Setup()

	// Outbox worker
	processor, err := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		Channel:       cfg.Outbox.Channel,
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, zl, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize outbox processor")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go processor.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		zl.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	zl.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error().Err(err).Msg("graceful shutdown failed")
	}
}
