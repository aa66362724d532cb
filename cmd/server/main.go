package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/bootstrap"
	"github.com/fixflow/backend/internal/infrastructure/auth"
	"github.com/fixflow/backend/internal/infrastructure/cache"
	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/migration"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/fixflow/backend/internal/infrastructure/storage"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"github.com/fixflow/backend/internal/interfaces/http/handler"
	"github.com/fixflow/backend/internal/interfaces/http/middleware"
	"github.com/fixflow/backend/internal/interfaces/http/router"
	"github.com/fixflow/backend/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//	@title			Fixflow API
//	@version		1.0
//	@description	Property maintenance lifecycle: work requests, work orders and invoices

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const lifecycleCollectInterval = time.Minute

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
		_ = log.Sync()
	}()

	log.Info("Starting Fixflow",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	stop, cancelStop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancelStop()

	obs, log, err := startObservability(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start telemetry", zap.Error(err))
	}
	defer obs.shutdown(context.Background(), log)

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(ctx, &cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize database connection with the zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel), logger.WithSlowThreshold(cfg.Log.SQLSlowThreshold))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: gormLog})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		dbTracing.DBName = cfg.Database.DBName
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             obs.meter.Meter(cfg.Telemetry.ServiceName),
		Logger:            log,
		LifecycleProvider: telemetry.NewGormLifecycleMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, lifecycleCollectInterval)
	defer businessMetrics.Stop()

	reports, err := newReportStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize report storage", zap.Error(err))
	}

	services, err := bootstrap.NewServices(db.DB, bootstrap.Config{
		Logger:        log,
		InvoicePrefix: cfg.Invoice.NumberPrefix,
		RateDefaults: apptenancy.RateDefaults{
			TaxRate:        cfg.Invoice.DefaultTaxRate,
			CommissionRate: cfg.Invoice.DefaultCommissionRate,
		},
		Metrics: businessMetrics,
		Reports: reports,
	})
	if err != nil {
		log.Fatal("Failed to wire services", zap.Error(err))
	}

	// HTTP layer
	tokens := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(tokens, services.Resolver)
	jwtConfig.Logger = log

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: obs.meter,
			Enabled:       cfg.Telemetry.Enabled,
		},
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	systemHandler.RegisterProbes(engine)

	router.NewRouter(engine, router.WithMiddleware(
		middleware.JWTAuthMiddleware(jwtConfig),
		middleware.TracingAttributeInjector(),
		middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  idempotencyStore,
			TTL:    cfg.HTTP.IdempotencyTTL,
			Logger: log,
		}),
	)).Register(
		systemHandler,
		handler.NewDirectoryHandler(services.Directory),
		handler.NewCurrencyHandler(services.Currency),
		handler.NewWorkRequestHandler(services.Requests, services.Orders),
		handler.NewWorkOrderHandler(services.Orders, services.Invoices),
		handler.NewInvoiceHandler(services.Invoices),
		handler.NewAuditHandler(services.Trail),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-stop.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// applyMigrations brings the schema up to date over a dedicated connection,
// since the migrate driver closes the pool it is handed.
func applyMigrations(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up(ctx)
}

// newReportStore returns the S3 store when a bucket is configured. Without
// one, report references are accepted unchecked and no link can be signed.
func newReportStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (appmaintenance.ReportVerifier, error) {
	if !cfg.Enabled() {
		log.Warn("Report storage disabled, completion reports are not verified")
		return nil, nil
	}
	store, err := storage.NewS3ReportStore(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Report storage ready", zap.String("bucket", store.Bucket()))
	return store, nil
}
