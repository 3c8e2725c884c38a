package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	transactionapp "github.com/hospital-erp/backend/internal/application/transaction"
	"github.com/hospital-erp/backend/internal/infrastructure/auth"
	"github.com/hospital-erp/backend/internal/infrastructure/cache"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/hospital-erp/backend/internal/infrastructure/logger"
	"github.com/hospital-erp/backend/internal/infrastructure/migration"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence"
	"github.com/hospital-erp/backend/internal/infrastructure/storage"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"github.com/hospital-erp/backend/internal/interfaces/http/handler"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
	"github.com/hospital-erp/backend/internal/interfaces/http/router"
	"github.com/hospital-erp/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//	@title			Hospital ERP API
//	@version		1.0
//	@description	Hospital inventory, request and procurement backend

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	maxBodySize      = 10 << 20
	loginRateLimit   = 10
	loginRateWindow  = time.Minute
	shutdownTimeout  = 30 * time.Second
	ledgerMeterScope = "hospital-erp/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Hospital ERP backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("Unknown timezone, using local time", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
		loc = time.Local
	}

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)

	// Database
	if cfg.Database.AutoMigrate {
		if err := migrate(cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.App.Env), log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	txManager := persistence.NewTxManager(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	deptRepo := persistence.NewGormDepartmentRepository(db.DB)
	itemRepo := persistence.NewGormStockItemRepository(db.DB)
	inventoryTxRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	requestRepo := persistence.NewGormInventoryRequestRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRequestRepository(db.DB)

	// Checkout tokens and token revocation
	tokenStore, err := cache.NewTokenStoreFactory(cfg.Redis, cfg.Checkout, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create checkout token store", zap.Error(err))
	}
	defer func() {
		_ = tokenStore.Close()
	}()
	blacklist := newTokenBlacklist(cfg.Redis, log)

	catalog, err := identityapp.CatalogFromRestrictions(cfg.Modules.Restrictions)
	if err != nil {
		log.Fatal("Invalid module restrictions", zap.Error(err))
	}

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:          meterProvider.Meter(ledgerMeterScope),
		Logger:         log,
		HealthProvider: telemetry.NewGormStockHealthProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerMetrics.StartPeriodicCollection(ctx)
	defer ledgerMetrics.Stop()

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, catalog, log)
	userService := identityapp.NewUserService(userRepo, deptRepo, blacklist, cfg.JWT.AccessTokenExpiration, log)
	departmentService := identityapp.NewDepartmentService(deptRepo, userRepo, log)

	inventoryService := inventoryapp.NewInventoryService(itemRepo, inventoryTxRepo, txManager, log)
	inventoryService.SetDepartmentRepository(deptRepo)
	inventoryService.SetLedgerMetrics(ledgerMetrics)

	requestService := requestapp.NewRequestService(requestRepo, purchaseRepo, inventoryService, txManager, log)
	requestService.SetProcurementLeadTime(cfg.Checkout.ProcurementLeadTime)
	purchaseService := requestapp.NewPurchaseService(purchaseRepo, log)

	checkoutService := checkoutapp.NewCheckoutService(requestRepo, tokenStore, inventoryService, txManager, cfg.Checkout.TokenTTL, log)
	checkoutService.SetLedgerMetrics(ledgerMetrics)

	transactionService := transactionapp.NewTransactionService(inventoryTxRepo, loc, log)
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare export bucket", zap.Error(err))
		}
		transactionService.SetObjectStorage(objectStorage)
		log.Info("Exports are uploaded to object storage", zap.String("bucket", objectStorage.GetBucket()))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	// Middleware order:
	// 1. RequestID - generate/propagate request ID
	// 2. Tracing - start the server span
	// 3. Logger and Recovery
	// 4. Security headers, CORS, body limit
	// 5. HTTP metrics and span error marking
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	securityConfig := middleware.DefaultSecurityConfig()
	if cfg.App.Env == "production" {
		securityConfig.HSTSMaxAge = 365 * 24 * time.Hour
	}
	engine.Use(middleware.SecureWithConfig(securityConfig))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.ExposeHeaders = append(corsConfig.ExposeHeaders, "X-RateLimit-Limit", "X-RateLimit-Remaining")
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(maxBodySize))
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.SpanErrorMarker())

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.DataScope(userRepo, log),
		middleware.TracingAttributeInjector(),
	)
	r.RegisterAPI(router.APIHandlers{
		Auth:         handler.NewAuthHandler(authService),
		Inventory:    handler.NewInventoryHandler(inventoryService),
		Requests:     handler.NewRequestHandler(requestService, checkoutService),
		Procurement:  handler.NewProcurementHandler(purchaseService),
		Transactions: handler.NewTransactionHandler(transactionService),
		Users:        handler.NewUserHandler(userService),
		Departments:  handler.NewDepartmentHandler(departmentService),
		System:       handler.NewSystemHandler(db, version),
	}, router.AccessControl{
		Authorizer:   authService,
		LoginLimiter: middleware.NewRateLimiter(loginRateLimit, loginRateWindow),
		Logger:       log,
	})
	r.Setup()

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrate applies the embedded schema over a dedicated connection; closing
// the migrator closes the connection it was given
func migrate(cfg config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		_ = m.Close()
		_ = sqlDB.Close()
	}()
	return m.Up()
}

// newTokenBlacklist shares Redis with the token store when it is
// configured; revocations held in memory do not survive a restart
func newTokenBlacklist(cfg config.RedisConfig, log *zap.Logger) auth.TokenBlacklist {
	if cfg.Host != "" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err == nil {
			return auth.NewRedisTokenBlacklist(client)
		}
		log.Warn("Redis unavailable, token revocation is kept in memory", zap.Error(err))
	}
	return auth.NewInMemoryTokenBlacklist()
}

func shutdownWithTimeout(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("Shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
