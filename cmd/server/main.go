package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/Nitish8696/flatgurugram/internal/application/billing"
	appidentity "github.com/Nitish8696/flatgurugram/internal/application/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/auth"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/cache"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/event"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/messaging"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/notification"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/payment"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/telemetry"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/handler"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/middleware"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var _ appbilling.Metrics = (*telemetry.BillingMetrics)(nil)

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
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Telemetry comes first so the DB plugin and HTTP middleware see the global providers
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.ConfigFromApp(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfigFromApp(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithZapLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowQueryThreshold(cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFromApp(cfg.Telemetry, "postgres"), log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		if _, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	// Repositories
	residentRepo := persistence.NewGormResidentRepository(db.DB)
	adminRepo := persistence.NewGormAdminRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Claims and token revocation live in Redis when it is configured
	claims, err := cache.NewClaimStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create claim store", zap.Error(err))
	}
	defer func() {
		_ = claims.Close()
	}()
	blacklist := newTokenBlacklist(rootCtx, cfg.Redis, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Payment gateway
	gateway, err := payment.NewSmartGatewayAdapter(payment.SmartGatewayConfigFromApp(cfg.Gateway))
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Event bus with its subscribers
	eventBus := event.NewInMemoryEventBus(log)

	var notifier appbilling.Notifier = notification.NewLogNotifier(log)
	if cfg.Mail.Enabled {
		notifier = notification.NewEmailNotifier(cfg.Mail, log)
	}
	eventBus.Subscribe(appbilling.NewBillIssuedNotifier(notifier, log))

	var forwarder *messaging.KafkaEventForwarder
	if cfg.Kafka.Enabled {
		producer, err := messaging.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Warn("Kafka unavailable, billing events stay in process", zap.Error(err))
		} else {
			forwarder = messaging.NewKafkaEventForwarder(producer, cfg.Kafka.Topic, log)
			eventBus.Subscribe(forwarder)
			log.Info("Forwarding billing events to Kafka",
				zap.Strings("brokers", cfg.Kafka.Brokers),
				zap.String("topic", cfg.Kafka.Topic),
			)
		}
	}
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	billingMetrics, err := telemetry.NewBillingMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	policy := appbilling.Policy{
		MinimumPayment: cfg.Billing.MinimumPayment,
		Currency:       cfg.Billing.Currency,
		ReturnURL:      cfg.Billing.ReturnURL,
		ClaimTTL:       cfg.Billing.ClaimTTL,
		SessionTTL:     cfg.Billing.SessionTTL,
	}

	// Application services
	authService := appidentity.NewAuthService(appidentity.AuthServiceConfig{
		Residents: residentRepo,
		Admins:    adminRepo,
		Tokens:    jwtService,
		Blacklist: blacklist,
		Logger:    log,
	})
	billService := appbilling.NewBillService(appbilling.BillServiceConfig{
		TxScope:      txScope,
		BillRepo:     billRepo,
		ResidentRepo: residentRepo,
		Publisher:    eventBus,
		Metrics:      billingMetrics,
		Logger:       log,
	})
	paymentService := appbilling.NewPaymentService(appbilling.PaymentServiceConfig{
		TxScope:     txScope,
		BillRepo:    billRepo,
		PaymentRepo: paymentRepo,
		Publisher:   eventBus,
		Metrics:     billingMetrics,
		Policy:      policy,
		Logger:      log,
	})
	reconciliationService := appbilling.NewReconciliationService(appbilling.ReconciliationServiceConfig{
		TxScope:     txScope,
		BillRepo:    billRepo,
		PaymentRepo: paymentRepo,
		Gateway:     gateway,
		Claims:      claims,
		Publisher:   eventBus,
		Metrics:     billingMetrics,
		Policy:      policy,
		Logger:      log,
	})

	// Handlers
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Residents: handler.NewResidentHandler(authService),
		Bills:     handler.NewBillHandler(billService),
		Payments:  handler.NewPaymentHandler(paymentService, reconciliationService),
	}
	healthHandler := handler.NewHealthHandler(sqlDB, version)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, panic recovery, access log, tracing,
	// metrics, security headers, CORS, body limit, then rate limiting
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(middleware.SpanEnricher())
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meter))
	}
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go rateLimiter.RunCleanup(rootCtx)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	var credentialLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go authLimiter.RunCleanup(rootCtx)
		credentialLimit = middleware.RateLimit(authLimiter)
	}

	engine.GET("/health", healthHandler.Health)

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:  jwtService,
		Revocations: authService,
		Logger:      log,
	}
	optionalJWT := jwtConfig
	optionalJWT.Optional = true

	r := router.NewRouter(engine)
	for _, group := range router.BillingRoutes(handlers, router.Guards{
		Authenticated:   middleware.JWTAuthMiddleware(jwtConfig),
		OptionalAuth:    middleware.JWTAuthMiddleware(optionalJWT),
		Admin:           middleware.RequireAdmin(),
		CredentialLimit: credentialLimit,
	}) {
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.Error("Error closing Kafka producer", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newTokenBlacklist keeps revoked token ids in Redis when it is reachable
func newTokenBlacklist(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) auth.TokenBlacklist {
	if !cfg.Enabled {
		return auth.NewInMemoryTokenBlacklist()
	}
	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, token revocations kept in memory", zap.Error(err))
		return auth.NewInMemoryTokenBlacklist()
	}
	return auth.NewRedisTokenBlacklist(client)
}

var _ shared.EventPublisher = (*event.InMemoryEventBus)(nil)
