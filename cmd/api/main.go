package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-order-service/config"
	"github.com/fekuna/omnipos-order-service/internal/discount"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/pkg/broker"
	"github.com/fekuna/omnipos-order-service/pkg/cache"
	"github.com/fekuna/omnipos-order-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-order-service/pkg/logger"

	catH "github.com/fekuna/omnipos-order-service/internal/catalog/handler"
	catListenerPkg "github.com/fekuna/omnipos-order-service/internal/catalog/listener"
	catRepoPkg "github.com/fekuna/omnipos-order-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-order-service/internal/catalog/usecase"

	ordH "github.com/fekuna/omnipos-order-service/internal/order/handler"
	ordRepoPkg "github.com/fekuna/omnipos-order-service/internal/order/repository"
	ordUCPkg "github.com/fekuna/omnipos-order-service/internal/order/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := postgres.RunMigrations(db, cfg.Postgres.MigrationsDir); err != nil {
		appLogger.Fatal("Could not run migrations", zap.Error(err))
	}

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	orderProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
	})
	defer orderProducer.Close()

	catalogConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.CatalogTopic,
		GroupID: cfg.Kafka.CatalogGroup,
	})
	defer catalogConsumer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	// 6. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	policy := discount.Policy{
		ItemDiscountCap: decimal.NewFromFloat(cfg.Policy.ItemDiscountCapPct / 100),
		AuthThreshold:   decimal.NewFromFloat(cfg.Policy.AuthThresholdPct),
		MinTokenLen:     cfg.Policy.ManagerTokenMinLen,
	}
	tolerance := decimal.NewFromFloat(cfg.Policy.PaymentTolerance)
	if tolerance.IsZero() {
		tolerance = payment.DefaultTolerance
	}

	catUC := catUCPkg.NewCatalogUseCase(catRepo, redisClient, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, catUC, redisClient, orderProducer, policy, tolerance, appLogger)

	// 8. Start Listeners
	catListener := catListenerPkg.NewCatalogListener(catalogConsumer, catUC, appLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catListener.Start(ctx)

	// 9. Initialize Handlers and Router
	catHandler := catH.NewCatalogHandler(catUC, appLogger)
	ordHandler := ordH.NewOrderHandler(ordUC, appLogger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api/v1", func(r chi.Router) {
		catHandler.Routes(r)
		ordHandler.Routes(r)
	})

	// 10. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
