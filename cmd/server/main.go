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
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	checkoutapp "github.com/shopfront/backend/internal/application/checkout"
	storeapp "github.com/shopfront/backend/internal/application/store"
	tradeapp "github.com/shopfront/backend/internal/application/trade"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/orderclient"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so the final logger can tee into the OTLP bridge
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := bootLog
	if logProvider.IsEnabled() {
		if log, err = logger.New(logCfg, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level))); err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting shopfront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.StartProfiler(cfg.Telemetry.Profiling, cfg.Telemetry.ServiceName, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewSQLLogger(log, logger.SQLLogConfig{
		Level:         cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	db, err := persistence.Open(ctx, &cfg.Database, persistence.WithQueryLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.NewDBTracer(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log).Install(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, telemetry.DBMetricsConfig{
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Session stores
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to create cart stores", zap.Error(err))
	}

	objectStorage := newObjectStorage(ctx, cfg, log)

	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	orderStore := persistence.NewGormOrderStore(db.DB,
		persistence.WithEventPublisher(eventBus),
		persistence.WithStoreLogger(log),
	)

	// Application services
	productService := catalogapp.NewProductService(productRepo,
		catalogapp.WithEventPublisher(eventBus),
		catalogapp.WithLogger(log),
	)
	imageService := catalogapp.NewImageService(productService, objectStorage, catalogapp.ImageServiceConfig{
		UploadURLExpiry:   cfg.Storage.PresignExpiration,
		DownloadURLExpiry: cfg.Storage.DownloadURLExpiry,
	}, log)
	productService.SetImageURLResolver(imageService)

	var lookup catalog.ProductLookup = productRepo
	if cfg.Checkout.ProductCacheTTL > 0 {
		cached := catalogapp.NewCachedProductLookup(productRepo, cfg.Checkout.ProductCacheTTL, log)
		eventBus.Subscribe(cached)
		lookup = cached
	}

	checkoutMetrics := newCheckoutMetrics(meterProvider, log)
	eventBus.Subscribe(checkoutapp.NewOrderPlacedHandler(checkoutMetrics, log))

	resilientStore := orderclient.NewResilientOrderStore(orderStore, orderclient.Config{
		Timeout:     cfg.Checkout.OrderTimeout,
		MaxFailures: cfg.Checkout.BreakerMaxFailures,
		OpenTimeout: cfg.Checkout.BreakerOpenTimeout,
	}, log)

	cartService := checkoutapp.NewCartService(stores.Carts, lookup, cfg.Checkout.SessionTTL, log,
		checkoutapp.WithSubmissionGuard(stores.Guard),
	)
	checkoutService := checkoutapp.NewCheckoutService(cartService, resilientStore, stores.Guard, log,
		checkoutapp.WithConfig(checkoutapp.CheckoutConfig{LockTTL: cfg.Checkout.SubmissionLockTTL}),
		checkoutapp.WithMetrics(checkoutMetrics),
	)
	orderService := tradeapp.NewOrderService(orderRepo, log)
	storeService := storeapp.NewStoreService(tenantRepo, eventBus, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(version).
		AddCheck("database", db.Ping)
	if stores.Client != nil {
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return stores.Client.Ping(ctx).Err()
		})
	}
	handlers := router.Handlers{
		Storefront: handler.NewStorefrontHandler(productService),
		Cart:       handler.NewCartHandler(cartService),
		Checkout:   handler.NewCheckoutHandler(checkoutService),
		Products:   handler.NewProductHandler(productService, imageService),
		Orders:     handler.NewOrderHandler(orderService),
		Store:      handler.NewStoreHandler(storeService),
		Health:     healthHandler,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Order matters: request id before logging, tracing before anything
	// that annotates the span.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recover(log))
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
		SkipPaths:   middleware.DefaultTracingConfig().SkipPaths,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfigFor(cfg.IsProduction())))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	router.RegisterHealthRoutes(engine, healthHandler)

	storefrontMW := router.StorefrontMiddleware{
		Tenant: middleware.StorefrontTenant(middleware.StorefrontTenantConfig{
			Finder:        tenantRepo,
			BaseDomain:    cfg.Storefront.BaseDomain,
			HeaderEnabled: true,
			Logger:        log,
		}),
		Session: middleware.CartSession(middleware.CartSessionConfig{
			CookieName:   cfg.Storefront.SessionCookie,
			CookieSecure: cfg.Storefront.CookieSecure,
			MaxAge:       cfg.Checkout.SessionTTL,
		}),
		Extra: []gin.HandlerFunc{middleware.TracingAttributeInjector()},
	}

	cleanupDone := make(chan struct{})
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 10*time.Minute)
		go limiter.RunCleanup(time.Minute, cleanupDone)
		storefrontMW.CheckoutLimit = middleware.RateLimit(limiter)
		log.Info("Checkout rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.StorefrontRoutes(handlers, storefrontMW)).
		Register(router.AdminRoutes(handlers, middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			Verifier: jwtService,
			Logger:   log,
		}))).
		Setup()

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

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	close(cleanupDone)

	// Drain in reverse order of construction
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := stores.Close(); err != nil {
		log.Warn("Error closing cart stores", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"meter":  meterProvider.Shutdown,
		"tracer": tracerProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage returns S3 storage when enabled and a static stand-in otherwise.
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) catalogapp.ObjectStorageService {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, product image uploads are refused")
		return storage.NewStaticObjectStorage(cfg.Storage.Endpoint)
	}

	s3, err := storage.NewS3Store(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify image bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3
}

func newCheckoutMetrics(mp *telemetry.MeterProvider, log *zap.Logger) checkoutapp.Metrics {
	m, err := telemetry.NewCheckoutMetrics(mp.Meter("shopfront.checkout"))
	if err != nil {
		log.Warn("Checkout metrics unavailable", zap.Error(err))
		return nil
	}
	return m
}
