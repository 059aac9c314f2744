package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/solarerp/backend/internal/application/document"
	kitapp "github.com/solarerp/backend/internal/application/kit"
	notificationapp "github.com/solarerp/backend/internal/application/notification"
	projectapp "github.com/solarerp/backend/internal/application/project"
	salesapp "github.com/solarerp/backend/internal/application/sales"
	stockapp "github.com/solarerp/backend/internal/application/stock"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/infrastructure/cache"
	"github.com/solarerp/backend/internal/infrastructure/config"
	"github.com/solarerp/backend/internal/infrastructure/event"
	"github.com/solarerp/backend/internal/infrastructure/identifier"
	"github.com/solarerp/backend/internal/infrastructure/logger"
	"github.com/solarerp/backend/internal/infrastructure/notification"
	"github.com/solarerp/backend/internal/infrastructure/persistence"
	"github.com/solarerp/backend/internal/infrastructure/scheduler"
	"github.com/solarerp/backend/internal/infrastructure/storage"
	"github.com/solarerp/backend/internal/infrastructure/telemetry"
	"github.com/solarerp/backend/internal/interfaces/http/handler"
	"github.com/solarerp/backend/internal/interfaces/http/middleware"
	"github.com/solarerp/backend/internal/interfaces/http/router"

	_ "github.com/solarerp/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Solar ERP API
//	@version		1.0
//	@description	Sale settlement, stock allocation and kit composition for solar installers.

//	@contact.name	API Support
//	@contact.url	https://github.com/solarerp/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

// multipartOverhead leaves room for the form framing around an upload
const multipartOverhead = 1 << 20

// Probe paths stay out of traces and request logs
var unobservedPaths = []string{"/health", "/ready"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log, cfg.App.Name))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Solar ERP",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: serviceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level))
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

	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access connection pool", zap.Error(err))
		}
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("solarerp/database"), sqlDB)
		if err != nil {
			log.Fatal("Failed to create database metrics", zap.Error(err))
		}
		if err := dbMetrics.Register(db.DB); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		defer func() {
			_ = dbMetrics.Stop()
		}()
	}

	// Redis is optional: without it idempotency keys, token revocations,
	// rate limits and the sweep lock stay in process memory.
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected successfully")
	}

	// Repositories
	materialRepo := persistence.NewGormMaterialRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	kitRepo := persistence.NewGormKitRepository(db.DB)

	// Application services
	stockService := stockapp.NewStockService(
		persistence.NewGormStockTransactionScope(db.DB),
		materialRepo, movementRepo, log)
	saleService := salesapp.NewSaleService(
		persistence.NewGormSalesTransactionScope(db.DB),
		saleRepo, receivableRepo,
		identifier.NewSaleNumberGenerator(cfg.Sales.SaleNumberPrefix),
		salesapp.Config{
			InstallmentPeriodMonths: cfg.Sales.InstallmentPeriodMonths,
			PromotePartialPayments:  cfg.Sales.PromotePartialPayments,
		}, log)
	kitService := kitapp.NewKitService(kitRepo, materialRepo, log)
	projectService := projectapp.NewProjectService(quoteRepo, projectRepo, log)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	idempotency := shared.DefaultIdempotencyConfig()
	if cfg.Event.IdempotencyTTL > 0 {
		idempotency.TTL = cfg.Event.IdempotencyTTL
	}
	saleNotifier := notificationapp.NewSaleEventHandler(newNotificationSender(cfg.Notification, redisClient, log), cfg.Notification.Locale, log)
	notifier := event.NewIdempotentHandler("sale-notifications", saleNotifier,
		cache.NewIdempotencyStore(redisClient, log), idempotency, log)
	eventBus.Subscribe(notifier, notifier.EventTypes()...)

	if meterProvider.IsEnabled() {
		settlementMetrics, err := telemetry.NewSettlementMetrics(meterProvider.Meter("solarerp/settlement"))
		if err != nil {
			log.Fatal("Failed to create settlement metrics", zap.Error(err))
		}
		eventBus.Subscribe(settlementMetrics, settlementMetrics.EventTypes()...)
	}

	stockService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Overdue sweep
	var sweep *scheduler.OverdueSweep
	if cfg.Scheduler.Enabled {
		sweep = scheduler.NewOverdueSweep(scheduler.OverdueSweepConfig{
			Hour:          cfg.Scheduler.OverdueSweepHour,
			CheckInterval: cfg.Scheduler.CheckInterval,
			JobTimeout:    cfg.Scheduler.JobTimeout,
		}, saleService, cache.NewJobLocker(redisClient), log)
		if err := sweep.Start(ctx); err != nil {
			log.Fatal("Failed to start overdue sweep", zap.Error(err))
		}
	}

	// Documents
	objectStorage, err := newObjectStorage(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	documentService := document.NewDocumentService(objectStorage, document.Config{
		MaxSizeBytes:      cfg.Storage.MaxUploadSize,
		DownloadURLExpiry: cfg.Storage.PresignExpiration,
	}, log)

	// Authentication
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewTokenBlacklist(redisClient)
	jwtAuth := middleware.JWTAuth(middleware.JWTConfig{
		JWTService: jwtService,
		Blacklist:  blacklist,
		Logger:     log,
	})

	// Handlers
	checks := []handler.ReadinessCheck{{
		Name:  "database",
		Check: db.PingContext,
	}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	handlers := router.Handlers{
		Stock:    handler.NewStockHandler(stockService),
		Sales:    handler.NewSalesHandler(saleService),
		Kits:     handler.NewKitHandler(kitService),
		Projects: handler.NewProjectHandler(projectService),
		Docs:     handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSize),
		Auth:     handler.NewAuthHandler(blacklist),
		System:   handler.NewSystemHandler(cfg.App.Name, version, checks...),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(serviceName, nil, unobservedPaths...),
		logger.GinMiddleware(log, unobservedPaths...),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize, middleware.PathLimit{
			Prefix:   "/api/v1/documents/",
			MaxBytes: cfg.Storage.MaxUploadSize + multipartOverhead,
		}),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)

	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiMiddleware := []gin.HandlerFunc{jwtAuth, middleware.SpanEnricher()}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewLimiter(redisClient, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter, log))
	}
	if meterProvider.IsEnabled() {
		httpMetrics, err := middleware.HTTPMetrics(meterProvider)
		if err != nil {
			log.Fatal("Failed to create HTTP metrics", zap.Error(err))
		}
		apiMiddleware = append(apiMiddleware, httpMetrics)
	}
	apiMiddleware = append(apiMiddleware, middleware.Profiling(profiler.IsEnabled()))

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithGuard(func(capability string) gin.HandlerFunc {
			return middleware.RequireCapability(capability, log)
		}),
	)
	r.Use(apiMiddleware...)
	for _, group := range handlers.DomainGroups() {
		r.Register(group)
	}
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sweep != nil {
		if err := sweep.Stop(shutdownCtx); err != nil {
			log.Warn("Overdue sweep did not stop in time", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func newNotificationSender(cfg config.NotificationConfig, client *redis.Client, log *zap.Logger) notificationapp.Sender {
	if cfg.Channel == "redis" {
		if client != nil {
			return notification.NewRedisStreamSender(client, cfg.Stream, 10000)
		}
		log.Warn("Notification channel redis needs a redis connection, logging notifications instead")
	}
	return notification.NewLogSender(log)
}

func newObjectStorage(cfg config.StorageConfig, log *zap.Logger) (document.ObjectStorage, error) {
	if cfg.Bucket == "" {
		log.Warn("No storage bucket configured, documents are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.PresignExpiration))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}
