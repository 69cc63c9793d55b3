package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paybridge.backend/internal/config"
	"paybridge.backend/internal/infrastructure/blockchain"
	"paybridge.backend/internal/infrastructure/datasources/postgres"
	"paybridge.backend/internal/infrastructure/jobs"
	"paybridge.backend/internal/infrastructure/repositories"
	"paybridge.backend/internal/interfaces/http/handlers"
	"paybridge.backend/internal/interfaces/http/middleware"
	"paybridge.backend/internal/usecases"
	"paybridge.backend/pkg/jwt"
	"paybridge.backend/pkg/logger"
	"paybridge.backend/pkg/metrics"
	"paybridge.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		sqlDB, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return gorm.Open(gormpostgres.New(gormpostgres.Config{
			Conn:                 sqlDB,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized",
		zap.String("env", cfg.Server.Env),
		zap.String("network", cfg.Network.Name),
	)

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := middleware.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	logger.Info(ctx, "Connected to database")

	if cfg.Database.AutoMigrate {
		if err := repositories.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info(ctx, "Database schema migrated")
	}

	// Core
	policy, err := usecases.ParseRoutePolicy(cfg.Routing.BridgedDirections)
	if err != nil {
		return fmt.Errorf("invalid routing config: %w", err)
	}
	routes := usecases.NewRouteSelector(policy)
	constructor, err := usecases.NewPaymentConstructor(cfg.Network, routes)
	if err != nil {
		return fmt.Errorf("invalid network profile: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	// Repositories
	invoiceRepo := repositories.NewInvoiceRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	paymentEventRepo := repositories.NewPaymentEventRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	invoiceUsecase := usecases.NewInvoiceUsecase(invoiceRepo, routes, constructor, recorder)
	tracker := usecases.NewPaymentTracker(paymentRepo, paymentEventRepo, uow, invoiceUsecase, recorder)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, paymentEventRepo, invoiceRepo, uow, routes, tracker)
	subscriptionUsecase := usecases.NewSubscriptionUsecase(subscriptionRepo, invoiceRepo, invoiceUsecase, uow, routes, recorder, usecases.BillingOptions{
		BatchSize:   cfg.Jobs.BillingBatchSize,
		Concurrency: cfg.Jobs.BillingConcurrency,
	})
	webhookUsecase := usecases.NewWebhookUsecase(tracker)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Background jobs
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stoppers []func()
	if cfg.Jobs.BillingEnabled {
		billingJob := jobs.NewSubscriptionBillingJob(subscriptionUsecase, cfg.Jobs.BillingInterval)
		go billingJob.Start(jobCtx)
		stoppers = append(stoppers, billingJob.Stop)
	}

	timeoutJob := jobs.NewPaymentTimeoutJob(paymentUsecase, cfg.Jobs.PaymentTimeout, cfg.Jobs.PaymentTimeoutInterval)
	go timeoutJob.Start(jobCtx)
	stoppers = append(stoppers, timeoutJob.Stop)

	clientFactory := blockchain.NewClientFactory()
	defer clientFactory.Close()
	if cfg.Jobs.ConfirmationPoller {
		client, err := clientFactory.GetEVMClientForChain(cfg.Network.BaseRPCURL, cfg.Network.BaseChainID)
		if err != nil {
			logger.Error(ctx, "Confirmation poller disabled", zap.Error(err))
		} else {
			client.WithMinConfirmations(uint64(cfg.Jobs.MinConfirmations))
			poller := jobs.NewConfirmationPollerJob(paymentRepo, client, tracker, cfg.Jobs.ConfirmationPollInterval)
			go poller.Start(jobCtx)
			stoppers = append(stoppers, poller.Stop)
		}
	}

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware("/health", "/metrics"))

	applyCORSMiddleware(r)
	registerHealthRoute(r, healthChecks{
		"database": sqlDB.PingContext,
		"redis":    redis.Ping,
	})
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, routeDeps{
		invoiceHandler:      handlers.NewInvoiceHandler(invoiceUsecase),
		paymentHandler:      handlers.NewPaymentHandler(paymentUsecase),
		subscriptionHandler: handlers.NewSubscriptionHandler(subscriptionUsecase),
		webhookHandler:      handlers.NewWebhookHandler(webhookUsecase),
		cronHandler:         handlers.NewCronHandler(subscriptionUsecase),
		webhookAuth:         middleware.WebhookSecretMiddleware(cfg.Security.WebhookSecretHash),
		cronAuth:            middleware.CronAuthMiddleware(jwtService),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-jobCtx.Done():
			return
		}
		logger.Info(ctx, "Shutting down background jobs")
		for _, stop := range stoppers {
			stop()
		}
		cancel()
	}()

	logger.Info(ctx, "PayBridge backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int64("base_chain_id", cfg.Network.BaseChainID),
		zap.String("solana_cluster", cfg.Network.SolanaCluster),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
