package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/channelsync/backend/internal/application/catalog"
	channelapp "github.com/channelsync/backend/internal/application/channel"
	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	webhookapp "github.com/channelsync/backend/internal/application/webhook"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/channelsync/backend/internal/infrastructure/auth"
	"github.com/channelsync/backend/internal/infrastructure/cache"
	"github.com/channelsync/backend/internal/infrastructure/config"
	"github.com/channelsync/backend/internal/infrastructure/logger"
	"github.com/channelsync/backend/internal/infrastructure/marketplaces"
	"github.com/channelsync/backend/internal/infrastructure/persistence"
	"github.com/channelsync/backend/internal/infrastructure/scheduler"
	"github.com/channelsync/backend/internal/infrastructure/shopify"
	"github.com/channelsync/backend/internal/infrastructure/storage"
	"github.com/channelsync/backend/internal/infrastructure/telemetry"
	"github.com/channelsync/backend/internal/interfaces/http/handler"
	"github.com/channelsync/backend/internal/interfaces/http/middleware"
	"github.com/channelsync/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/channelsync/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			ChannelSync Backend API
//	@version		1.0
//	@description	Multi-tenant marketplace integration backend for catalogs, sales channels, listings, and unified orders
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/channelsync/backend
//	@contact.email	support@channelsync.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting channelsync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	ctx := context.Background()
	meterProvider, stopTelemetry := initTelemetry(ctx, cfg, db, log)
	defer stopTelemetry()

	// Repositories
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	catalogLinkRepo := persistence.NewGormCatalogLinkRepository(db.DB)
	tenantLinkRepo := persistence.NewGormTenantLinkRepository(db.DB)

	// Marketplace adapter registry (Amazon, eBay)
	registry := marketplaces.NewAdapterRegistry()
	syncLease := newSyncLease(cfg, log)
	sourceClient := newSourceClient(cfg, log)

	// Application services
	connectionService := marketplaceapp.NewConnectionService(connectionRepo, listingRepo, orderRepo, registry, log)
	listingService := marketplaceapp.NewListingSyncService(connectionRepo, listingRepo, productRepo, registry, syncLease, log)
	orderService := marketplaceapp.NewOrderSyncService(connectionRepo, orderRepo, registry, syncLease, newPayloadArchiver(cfg, log), log)
	catalogService := catalogapp.NewCatalogService(catalogRepo, productRepo)
	productImportService := catalogapp.NewProductImportService(productRepo, sourceClient, log)
	channelService := channelapp.NewChannelService(channelRepo, catalogRepo, catalogLinkRepo, tenantLinkRepo)
	webhookService := webhookapp.NewShopifyWebhookService(cfg.Webhook.Secret, productRepo, orderRepo, listingService, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.Sync.Enabled {
		stopSync := startAutoSync(ctx, cfg, connectionRepo, listingService, orderService, log)
		defer stopSync()
	}

	// Backlog gauges collected from the database
	if meterProvider != nil {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:        meterProvider.Meter("channelsync-backend"),
			Logger:       log,
			SyncProvider: telemetry.NewGormSyncMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}
	applyMiddleware(engine, cfg, meterProvider, log)

	engine.GET("/health", healthHandler(db))

	// Swagger with access protection
	swaggerCfg := middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}
	var swaggerJWT gin.HandlerFunc
	if cfg.Swagger.RequireAuth {
		swaggerJWT = middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Logger:     log,
		})
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(swaggerCfg, swaggerJWT),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Source platform webhooks are called directly by Shopify and verified
	// by HMAC signature, so they bypass JWT authentication.
	webhookHandler := handler.NewShopifyWebhookHandler(webhookService)
	webhookGroup := engine.Group("/api/v1/webhooks")
	if cfg.HTTP.RateLimitEnabled {
		webhookLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		webhookGroup.Use(middleware.WebhookRateLimit(webhookLimiter))
	}
	webhookGroup.POST("/shopify/:shopId", webhookHandler.HandleShopifyWebhook)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Public endpoints skip JWT and shop resolution
	publicPaths := []string{
		"/api/v1/ping",
		"/api/v1/system/ping",
		"/api/v1/system/info",
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:       jwtService,
		SkipPaths:        publicPaths,
		SkipPathPrefixes: []string{"/api/v1/webhooks"},
		Logger:           log,
	}))

	// Tenant-scoped routes resolve the shop id from JWT claims or the
	// X-Shop-ID header
	r.Use(middleware.ShopMiddlewareWithConfig(middleware.ShopMiddlewareConfig{
		HeaderEnabled:    true,
		JWTEnabled:       true,
		Required:         true,
		SkipPaths:        publicPaths,
		SkipPathPrefixes: []string{"/api/v1/webhooks"},
		Logger:           log,
	}))

	// Marketplace domain (connections, listings, orders, meta)
	connectionHandler := handler.NewConnectionHandler(connectionService, listingService, orderService)
	listingHandler := handler.NewListingHandler(listingService)
	orderHandler := handler.NewOrderHandler(orderService)
	metaHandler := handler.NewMarketplaceMetaHandler(registry, connectionService, listingService, orderService)

	marketplaceRoutes := router.NewDomainGroup("marketplace", "/marketplace")
	marketplaceRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "marketplace service ready"})
	})
	marketplaceRoutes.GET("/supported", metaHandler.Supported)
	marketplaceRoutes.GET("/dashboard", metaHandler.Dashboard)

	marketplaceRoutes.POST("/connections", connectionHandler.Create)
	marketplaceRoutes.GET("/connections", connectionHandler.List)
	marketplaceRoutes.GET("/connections/:id", connectionHandler.Get)
	marketplaceRoutes.PUT("/connections/:id", connectionHandler.Update)
	marketplaceRoutes.DELETE("/connections/:id", connectionHandler.Disconnect)
	marketplaceRoutes.POST("/connections/:id/test", connectionHandler.Test)
	marketplaceRoutes.POST("/connections/:id/deactivate", connectionHandler.Deactivate)

	marketplaceRoutes.POST("/listings", listingHandler.Create)
	marketplaceRoutes.GET("/listings", listingHandler.List)
	marketplaceRoutes.GET("/listings/:id", listingHandler.Get)
	marketplaceRoutes.DELETE("/listings/:id", listingHandler.Delete)
	marketplaceRoutes.POST("/listings/:id/sync", listingHandler.Sync)
	marketplaceRoutes.POST("/listings/:id/retry", listingHandler.Retry)
	marketplaceRoutes.POST("/listings/sync", listingHandler.SyncBulk)

	marketplaceRoutes.GET("/orders", orderHandler.List)
	marketplaceRoutes.GET("/orders/:id", orderHandler.Get)
	marketplaceRoutes.POST("/orders/pull", orderHandler.Pull)
	marketplaceRoutes.POST("/orders/:id/ship", orderHandler.Ship)
	marketplaceRoutes.POST("/orders/:id/cancel", orderHandler.Cancel)
	marketplaceRoutes.POST("/orders/:id/refund", orderHandler.Refund)

	// Catalog domain (catalogs, source product cache)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	productHandler := handler.NewProductHandler(productImportService)

	catalogRoutes := router.NewDomainGroup("catalog", "")
	catalogRoutes.POST("/catalogs", catalogHandler.Create)
	catalogRoutes.GET("/catalogs", catalogHandler.List)
	catalogRoutes.GET("/catalogs/:id", catalogHandler.Get)
	catalogRoutes.PUT("/catalogs/:id", catalogHandler.Update)
	catalogRoutes.DELETE("/catalogs/:id", catalogHandler.Delete)
	catalogRoutes.GET("/catalogs/:id/products", catalogHandler.Products)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.POST("/products/import", productHandler.Import)

	// Channel domain (sales channels, catalog links, tenant access)
	channelHandler := handler.NewChannelHandler(channelService)

	channelRoutes := router.NewDomainGroup("channel", "/channels")
	channelRoutes.POST("", channelHandler.Create)
	channelRoutes.GET("", channelHandler.List)
	channelRoutes.GET("/:id", channelHandler.Get)
	channelRoutes.PUT("/:id", channelHandler.Update)
	channelRoutes.DELETE("/:id", channelHandler.Delete)
	channelRoutes.POST("/:id/catalogs", channelHandler.LinkCatalog)
	channelRoutes.GET("/:id/catalogs", channelHandler.EffectiveCatalogs)
	channelRoutes.PUT("/:id/catalogs/:linkId", channelHandler.UpdateCatalogLink)
	channelRoutes.DELETE("/:id/catalogs/:linkId", channelHandler.UnlinkCatalog)
	channelRoutes.POST("/:id/access", channelHandler.GrantAccess)
	channelRoutes.GET("/:id/access", channelHandler.Permissions)
	channelRoutes.DELETE("/:id/access", channelHandler.RevokeAccess)

	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(marketplaceRoutes).
		Register(catalogRoutes).
		Register(channelRoutes).
		Register(systemRoutes)
	r.Setup()

	// Bare ping outside the domain groups for load balancer checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	run(&http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}, log)
}

// initTelemetry wires trace, metric and log export plus the gorm
// instrumentation. The returned stop function flushes every provider.
// When telemetry is disabled the meter provider is nil.
func initTelemetry(ctx context.Context, cfg *config.Config, db *persistence.Database, log *zap.Logger) (*telemetry.MeterProvider, func()) {
	if !cfg.Telemetry.Enabled {
		return nil, func() {}
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize logger provider", zap.Error(err))
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("failed to register database tracing", zap.Error(err))
	}

	dbMetrics, err := telemetry.NewDBMetrics(
		meterProvider.Meter("channelsync-backend"),
		telemetry.DefaultDBMetricsConfig(),
		log,
	)
	if err != nil {
		log.Warn("failed to initialize database metrics", zap.Error(err))
	} else if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
		log.Warn("failed to register database metrics plugin", zap.Error(err))
	}

	log.Info("telemetry initialized",
		zap.String("collector", cfg.Telemetry.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.Telemetry.SamplingRatio),
	)

	stop := func() {
		for _, provider := range []interface {
			Shutdown(context.Context) error
		}{loggerProvider, meterProvider, tracerProvider} {
			if err := provider.Shutdown(context.Background()); err != nil {
				log.Error("telemetry shutdown error", zap.Error(err))
			}
		}
	}
	return meterProvider, stop
}

// newSyncLease prefers Redis so leases hold across instances, and falls
// back to process-local leases when Redis is unreachable.
func newSyncLease(cfg *config.Config, log *zap.Logger) marketplace.SyncLease {
	lease, err := cache.NewRedisSyncLease(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis unavailable, using in-memory sync lease", zap.Error(err))
		return cache.NewInMemorySyncLease()
	}
	log.Info("redis sync lease connected",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)
	return lease
}

// newSourceClient builds the Shopify source platform client. A nil client
// disables product import.
func newSourceClient(cfg *config.Config, log *zap.Logger) catalog.SourceClient {
	if cfg.Shopify.ShopDomain == "" {
		log.Warn("shopify source platform not configured, product import disabled")
		return nil
	}
	client, err := shopify.NewSourceClient(shopify.Config{
		ShopDomain:  cfg.Shopify.ShopDomain,
		APIKey:      cfg.Shopify.APIKey,
		APISecret:   cfg.Shopify.APISecret,
		AccessToken: cfg.Shopify.AccessToken,
	})
	if err != nil {
		log.Fatal("failed to initialize shopify source client", zap.Error(err))
	}
	log.Info("shopify source platform connected", zap.String("shop_domain", cfg.Shopify.ShopDomain))
	return client
}

// newPayloadArchiver builds the order payload archiver: S3 when storage is
// enabled, an in-memory stub otherwise
func newPayloadArchiver(cfg *config.Config, log *zap.Logger) order.PayloadArchiver {
	if !cfg.Storage.Enabled {
		return storage.NewInMemoryPayloadArchiver()
	}
	archiver, err := storage.NewS3PayloadArchiver(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Warn("failed to initialize s3 payload archiver, archiving in memory", zap.Error(err))
		return storage.NewInMemoryPayloadArchiver()
	}
	log.Info("s3 payload archiver initialized",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("region", cfg.Storage.Region),
	)
	return archiver
}

// startAutoSync runs the background sync scheduler and the trigger that
// enqueues due connections. The returned stop function drains both.
func startAutoSync(
	ctx context.Context,
	cfg *config.Config,
	connectionRepo marketplace.ConnectionRepository,
	listingService scheduler.ListingSyncer,
	orderService scheduler.OrderPuller,
	log *zap.Logger,
) func() {
	executor := scheduler.NewSyncExecutor(connectionRepo, listingService, orderService, cfg.Sync.BatchSize, log)

	schedulerCfg := scheduler.DefaultSyncSchedulerConfig()
	schedulerCfg.MaxConcurrentJobs = cfg.Sync.MaxConcurrentConns
	schedulerCfg.SyncInterval = cfg.Sync.Interval
	schedulerCfg.ListingBatchSize = cfg.Sync.BatchSize
	schedulerCfg.LookbackDuration = cfg.Sync.OrderLookback

	syncScheduler, err := scheduler.NewSyncScheduler(schedulerCfg, executor, log)
	if err != nil {
		log.Fatal("failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("failed to start sync scheduler", zap.Error(err))
	}

	triggerCfg := scheduler.DefaultSyncTriggerConfig()
	triggerCfg.SyncInterval = cfg.Sync.Interval
	triggerCfg.FirstSyncLookback = cfg.Sync.OrderLookback

	syncTrigger := scheduler.NewSyncTrigger(triggerCfg, syncScheduler, connectionRepo, log)
	if err := syncTrigger.Start(ctx); err != nil {
		log.Fatal("failed to start sync trigger", zap.Error(err))
	}

	log.Info("auto-sync scheduler started",
		zap.Duration("interval", cfg.Sync.Interval),
		zap.Int("batch_size", cfg.Sync.BatchSize),
		zap.Int("max_concurrent_connections", cfg.Sync.MaxConcurrentConns),
	)

	return func() {
		if err := syncTrigger.Stop(context.Background()); err != nil {
			log.Error("error stopping sync trigger", zap.Error(err))
		}
		if err := syncScheduler.Stop(context.Background()); err != nil {
			log.Error("error stopping sync scheduler", zap.Error(err))
		}
	}
}

// applyMiddleware installs the global middleware stack. Order matters:
// the request ID must exist before logging, and telemetry wraps
// everything that follows it.
func applyMiddleware(engine *gin.Engine, cfg *config.Config, meterProvider *telemetry.MeterProvider, log *zap.Logger) {
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
		engine.Use(middleware.Profiling())
	}

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Handler deadline mirrors the server write timeout so DB queries
	// and marketplace calls are cancelled alongside the response
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests.
func run(srv *http.Server, log *zap.Logger) {
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// healthHandler reports liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
