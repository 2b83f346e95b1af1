package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountingapp "github.com/strataledger/backend/internal/application/accounting"
	reportapp "github.com/strataledger/backend/internal/application/report"
	"github.com/strataledger/backend/internal/infrastructure/config"
	"github.com/strataledger/backend/internal/infrastructure/lock"
	"github.com/strataledger/backend/internal/infrastructure/logger"
	"github.com/strataledger/backend/internal/infrastructure/persistence"
	"github.com/strataledger/backend/internal/infrastructure/telemetry"
	"github.com/strataledger/backend/internal/interfaces/http/handler"
	"github.com/strataledger/backend/internal/interfaces/http/middleware"
	"github.com/strataledger/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StrataLedger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled {
		if err := telemetry.RegisterDBTracing(db.DB, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	txnRepo := persistence.NewGormTransactionRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	periodRepo := persistence.NewGormPeriodRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	statementRepo := persistence.NewGormStatementRepository(db.DB)
	reconciliationRepo := persistence.NewGormReconciliationRepository(db.DB)
	lotRegistry := persistence.NewGormLotRegistry(db.DB)

	// Per-scheme write serialization for levy runs and reconciliations
	locks := lock.NewKeyedMutex()

	// Initialize application services
	ledgerService := accountingapp.NewLedgerService(accountRepo, txnRepo, paymentRepo)
	levyService := accountingapp.NewLevyService(
		scheduleRepo,
		periodRepo,
		itemRepo,
		paymentRepo,
		accountRepo,
		txnRepo,
		lotRegistry,
		locks,
		log,
	)
	reconciliationService := accountingapp.NewReconciliationService(
		statementRepo,
		reconciliationRepo,
		accountRepo,
		txnRepo,
		locks,
		log,
	)
	reportService := reportapp.NewService(accountRepo, txnRepo, itemRepo, lotRegistry)

	// Set up gin engine with middleware
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Register routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db, version))
	r.Register(handler.NewLedgerHandler(ledgerService))
	r.Register(handler.NewLevyHandler(levyService))
	r.Register(handler.NewBankRecHandler(reconciliationService))
	r.Register(handler.NewReportHandler(reportService))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
