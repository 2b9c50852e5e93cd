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
	assetapp "github.com/tyrefleet/backend/internal/application/asset"
	financeapp "github.com/tyrefleet/backend/internal/application/finance"
	partnerapp "github.com/tyrefleet/backend/internal/application/partner"
	purchasingapp "github.com/tyrefleet/backend/internal/application/purchasing"
	retreadapp "github.com/tyrefleet/backend/internal/application/retread"
	stockapp "github.com/tyrefleet/backend/internal/application/stock"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/auth"
	"github.com/tyrefleet/backend/internal/infrastructure/cache"
	"github.com/tyrefleet/backend/internal/infrastructure/config"
	"github.com/tyrefleet/backend/internal/infrastructure/event"
	"github.com/tyrefleet/backend/internal/infrastructure/logger"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence"
	"github.com/tyrefleet/backend/internal/infrastructure/scheduler"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"github.com/tyrefleet/backend/internal/interfaces/http/handler"
	"github.com/tyrefleet/backend/internal/interfaces/http/middleware"
	"github.com/tyrefleet/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName

	// Telemetry providers come first so the request logger can tee into OTLP logs
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    serviceName,
		LoggerProvider: logProvider,
		Level:          logger.ParseLevel(cfg.Log.Level),
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting tire service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

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
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider, logProvider)

	lifecycleMetrics, err := telemetry.NewLifecycleMetrics(telemetry.LifecycleMetricsConfig{
		Meter:  meterProvider.Meter("tyrefleet.lifecycle"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize lifecycle metrics", zap.Error(err))
	}

	// Storage
	db, err := persistence.NewDatabase(&cfg.Database, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
	}

	scopeOpts := []persistence.ScopeOption{
		persistence.WithRetry(cfg.Database.TxMaxAttempts, cfg.Database.TxRetryBackoff),
		persistence.WithScopeLogger(log),
	}
	if cfg.Sequence.Backend == config.SequenceBackendRedis && redisClient != nil {
		scopeOpts = append(scopeOpts, persistence.WithSequenceGenerator(cache.NewRedisSequenceGenerator(redisClient)))
	}
	scope := persistence.NewGormTransactionScope(db.DB, scopeOpts...)

	tireRepo := persistence.NewGormTireRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	actors := actorResolver(persistence.NewGormActorRepository(db.DB), redisClient, cfg.Cache.ActorTTL, log)

	// Application services
	clock := shared.SystemClock{}
	recorder := assetapp.NewRecorder(clock)
	recorder.SetMetrics(lifecycleMetrics)

	postingService, err := financeapp.NewPostingService(scope, ledgerRepo, supplierRepo, actors, finance.Accounts{
		Inventory: cfg.Finance.InventoryAccount,
		Payable:   cfg.Finance.PayableAccount,
		Cash:      cfg.Finance.CashAccount,
	}, clock, log)
	if err != nil {
		log.Fatal("Invalid chart of accounts", zap.Error(err))
	}
	postingService.SetMetrics(lifecycleMetrics)

	tireService := assetapp.NewTireService(scope, tireRepo, movementRepo, actors, recorder, log)
	purchaseOrderService := purchasingapp.NewPurchaseOrderService(scope,
		persistence.NewGormPurchaseOrderRepository(db.DB),
		persistence.NewGormGoodsReceiptRepository(db.DB),
		actors, recorder, postingService, log)
	purchaseOrderService.SetMetrics(lifecycleMetrics)
	retreadService := retreadapp.NewService(scope, persistence.NewGormRetreadOrderRepository(db.DB),
		actors, recorder, postingService, log)
	retreadService.SetMetrics(lifecycleMetrics)
	stockService := stockapp.NewService(scope, catalogRepo, tireRepo, actors, clock, log)
	stockService.SetMetrics(lifecycleMetrics)
	supplierService := partnerapp.NewSupplierService(supplierRepo, actors, clock, log)

	var runLock stockapp.RunLock
	if redisClient != nil {
		runLock = cache.NewRedisRunLock(redisClient)
		stockService.SetRunLock(runLock, cfg.Scheduler.LockTTL)
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	reorderHandler := stockapp.NewStockBelowReorderHandler(log).WithMetrics(lifecycleMetrics)
	eventBus.Subscribe(reorderHandler)
	log.Info("Event handlers registered", zap.Strings("reorder_events", reorderHandler.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	tireService.SetEventPublisher(eventBus)
	purchaseOrderService.SetEventPublisher(eventBus)
	retreadService.SetEventPublisher(eventBus)
	stockService.SetEventPublisher(eventBus)

	// Background reconciliation
	if cfg.Scheduler.Enabled {
		stop, err := startScheduler(ctx, cfg.Scheduler, stockService, postingService, runLock, lifecycleMetrics, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer stop()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	checks := map[string]handler.HealthChecker{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine, err := router.NewRouter(router.Config{
		ServiceName:    serviceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           cors,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Meter:          meterProvider.Meter("http.server"),
	}, auth.NewVerifier(cfg.JWT), log,
		router.WithSystemHandler(handler.NewSystemHandler(version, checks)),
	).Register(
		handler.NewTireHandler(tireService),
		handler.NewPurchaseOrderHandler(purchaseOrderService),
		handler.NewRetreadOrderHandler(retreadService),
		handler.NewStockHandler(stockService),
		handler.NewFinanceHandler(postingService),
		handler.NewSupplierHandler(supplierService),
	).Engine()
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// actorResolver puts the redis read-through cache in front of the actors table
// when redis is configured
func actorResolver(repo identity.ActorResolver, client *redis.Client, ttl time.Duration, log *zap.Logger) identity.ActorResolver {
	if client == nil {
		return repo
	}
	return cache.NewRedisActorCache(client, repo, ttl, log)
}

// startScheduler registers the reconcile and balance jobs and starts their
// interval triggers. The returned func stops everything in reverse order.
func startScheduler(
	ctx context.Context,
	cfg config.SchedulerConfig,
	stock scheduler.StockReconciler,
	balances scheduler.BalanceVerifier,
	lock stockapp.RunLock,
	metrics *telemetry.LifecycleMetrics,
	log *zap.Logger,
) (func(), error) {
	jobLog := log.Named("scheduler")
	s := scheduler.New(scheduler.Config{
		JobTimeout:    cfg.JobTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, jobLog)
	s.Register(scheduler.JobStockReconcile, scheduler.StockReconcileJob(stock, jobLog))
	s.Register(scheduler.JobSupplierBalanceVerify, scheduler.SupplierBalanceVerifyJob(balances, lock, cfg.LockTTL, jobLog))
	s.OnFinish = func(job scheduler.Job) {
		var took time.Duration
		if job.StartedAt != nil && job.CompletedAt != nil {
			took = job.CompletedAt.Sub(*job.StartedAt)
		}
		metrics.RecordJob(context.Background(), string(job.Kind), string(job.Status), took)
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	triggers := []*scheduler.IntervalTrigger{
		scheduler.NewIntervalTrigger(scheduler.JobStockReconcile, cfg.ReconcileInterval, s, jobLog),
		scheduler.NewIntervalTrigger(scheduler.JobSupplierBalanceVerify, cfg.BalanceVerifyInterval, s, jobLog),
	}
	for _, t := range triggers {
		if err := t.Start(ctx); err != nil {
			_ = s.Stop(ctx)
			return nil, err
		}
	}
	log.Info("Scheduler started",
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
		zap.Duration("balance_verify_interval", cfg.BalanceVerifyInterval),
	)

	return func() {
		stopCtx := context.Background()
		for _, t := range triggers {
			if err := t.Stop(stopCtx); err != nil {
				log.Error("Error stopping trigger", zap.Error(err))
			}
		}
		if err := s.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}, nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes and closes the OTEL providers
func shutdownTelemetry(log *zap.Logger, providers ...shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}
}
