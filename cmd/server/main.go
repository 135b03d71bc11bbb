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

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/keylock"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
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

	// Session cart store: Redis, with optional in-memory fallback
	storeFactory := cache.NewSessionStoreFactory(cfg.Redis, cfg.Cart.SessionTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cart.AllowInMemorySession),
	)
	sessionStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create session cart store", zap.Error(err))
	}

	// Repositories
	accountCartRepo := persistence.NewGormCartRepository(db.DB)
	cartStore := cart.NewStoreMux(sessionStore, accountCartRepo)
	productRepo := persistence.NewGormProductRepository(db.DB)
	promotionRepo := persistence.NewGormPromotionRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	historyRepo := persistence.NewGormStatusHistoryRepository(db.DB)
	stockLedger := persistence.NewGormStockLedger(db.DB)

	// Cart and order mutations for the same owner must serialize through
	// one lock set, so both services share this instance.
	locks := keylock.New()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	promotionEngine := cartapp.NewPromotionEngine(promotionRepo)
	cartService := cartapp.NewCartService(cartStore, productRepo, stockLedger, promotionEngine, locks, log)
	orderService := orderapp.NewOrderService(orderRepo, historyRepo, cartStore, stockLedger,
		orderapp.NewLoggingNotificationService(log), locks, log)
	productService := catalogapp.NewProductService(productRepo, stockLedger, log)

	// Health checks for the readiness probe
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			return db.Ping()
		},
	}
	if redisStore, ok := sessionStore.(*cache.RedisCartStore); ok {
		checks["redis"] = func(ctx context.Context) error {
			return redisStore.GetClient().Ping(ctx).Err()
		}
	}

	// HTTP engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Session(cfg.Cookie, int(cfg.Cart.SessionTTL.Seconds())),
		middleware.OptionalAuth(jwtService),
	)
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Routes
	router.NewRouter(engine).
		Register(handler.NewSystemHandler(checks)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewCartHandler(cartService)).
		Register(handler.NewOrderHandler(orderService)).
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
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	if closer, ok := sessionStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing session cart store", zap.Error(err))
		}
	}

	log.Info("Server stopped")
}
