package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rishitshah12/Auctave-User-sub002/internal/config"
	"github.com/rishitshah12/Auctave-User-sub002/internal/middleware"
	orderentity "github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	orderhandler "github.com/rishitshah12/Auctave-User-sub002/internal/order/handler"
	orderrepo "github.com/rishitshah12/Auctave-User-sub002/internal/order/repository"
	ordersvc "github.com/rishitshah12/Auctave-User-sub002/internal/order/service"
	quoteentity "github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	quotehandler "github.com/rishitshah12/Auctave-User-sub002/internal/quote/handler"
	quoterepo "github.com/rishitshah12/Auctave-User-sub002/internal/quote/repository"
	quotesvc "github.com/rishitshah12/Auctave-User-sub002/internal/quote/service"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/sse"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting auctave service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&orderentity.Order{},
		&quoteentity.Quote{},
		&activity.Log{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	ctx := context.Background()

	// Edit sessions live in Redis when configured, otherwise in process
	var sessions orderrepo.SessionStore
	if cfg.Redis.Host != "" {
		rdb := initRedis(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, using in-process session store", zap.Error(err))
			sessions = orderrepo.NewMemorySessionStore(cfg.Session.TTL)
		} else {
			defer rdb.Close()
			sessions = orderrepo.NewRedisSessionStore(rdb, cfg.Session.TTL)
		}
	} else {
		sessions = orderrepo.NewMemorySessionStore(cfg.Session.TTL)
	}

	var (
		fileStorage storage.FileStorage
		resolver    *storage.Resolver
	)
	fileStorage, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		zapLogger.Warn("File storage disabled", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	} else {
		resolver = storage.NewResolver(fileStorage, storage.ResolverOptions{
			TTL:      cfg.Storage.SignedURLTTL,
			Timeout:  cfg.Storage.Resolve.Timeout,
			Attempts: cfg.Storage.Resolve.Attempts,
			Backoff:  cfg.Storage.Resolve.Backoff,
		}, zapLogger)
		zapLogger.Info("File storage ready", zap.String("driver", cfg.Storage.Driver))
	}

	hub := sse.NewHub(zapLogger)
	notifier := sse.NewNotifier(hub)
	activityRepo := activity.NewRepository(db, zapLogger)

	orderService := ordersvc.NewOrderService(orderrepo.NewOrderTable(db), sessions, zapLogger)
	orderService.SetNotifier(notifier)
	orderService.SetActivityLogger(activityRepo)

	quoteService := quotesvc.NewQuoteService(quoterepo.NewQuoteTable(db), zapLogger)
	quoteService.SetNotifier(notifier)
	quoteService.SetActivityLogger(activityRepo)
	quoteService.SetOrderCreator(orderService)

	if fileStorage != nil {
		orderService.SetStorage(fileStorage, resolver)
		quoteService.SetStorage(fileStorage, resolver)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, cfg, hub,
		orderhandler.NewOrderHandler(orderService),
		quotehandler.NewQuoteHandler(quoteService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE connections are long-lived
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, cfg *config.Config, hub *sse.Hub, orders *orderhandler.OrderHandler, quotes *quotehandler.QuoteHandler) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sse_clients": hub.ClientCount()})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		r.Static(cfg.Storage.PublicBase, cfg.Storage.LocalDir)
	}

	api := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	{
		api.GET("/sse/events", hub.Stream)
		orders.RegisterRoutes(api)
		quotes.RegisterRoutes(api)
	}
}
