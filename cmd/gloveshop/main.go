package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	app_discounts "github.com/Canis-Ignem/total-keepers-be/internal/app/discounts"
	app_orders "github.com/Canis-Ignem/total-keepers-be/internal/app/orders"
	app_payments "github.com/Canis-Ignem/total-keepers-be/internal/app/payments"
	app_products "github.com/Canis-Ignem/total-keepers-be/internal/app/products"
	"github.com/Canis-Ignem/total-keepers-be/internal/config"
	http_discounts "github.com/Canis-Ignem/total-keepers-be/internal/handler/http/discounts"
	http_orders "github.com/Canis-Ignem/total-keepers-be/internal/handler/http/orders"
	http_payments "github.com/Canis-Ignem/total-keepers-be/internal/handler/http/payments"
	http_products "github.com/Canis-Ignem/total-keepers-be/internal/handler/http/products"
	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/cache"
	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/database"
	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/kafka"
	"github.com/Canis-Ignem/total-keepers-be/internal/outbox"
	"github.com/Canis-Ignem/total-keepers-be/internal/redsys"
	postgres_discount_repo "github.com/Canis-Ignem/total-keepers-be/internal/repository/discount_repo/postgres"
	postgres_order_repo "github.com/Canis-Ignem/total-keepers-be/internal/repository/order_repo/postgres"
	postgres_outbox_repo "github.com/Canis-Ignem/total-keepers-be/internal/repository/outbox_repo/postgres"
	postgres_payment_repo "github.com/Canis-Ignem/total-keepers-be/internal/repository/payment_repo/postgres"
	postgres_product_repo "github.com/Canis-Ignem/total-keepers-be/internal/repository/product_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Glove shop backend starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New(cfg.MigrationsPath, migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	// Redis is an accelerator, not a dependency: catalog reads fall back to
	// the DB when it is unavailable.
	productCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, appLogger)
	if err != nil {
		appLogger.Warn("Redis unavailable, product catalog will be served from the DB only", zap.Error(err))
		productCache = nil
	}

	gateway := &redsys.Client{
		MerchantCode: cfg.RedsysMerchantCode,
		Terminal:     cfg.RedsysTerminal,
		MerchantName: cfg.RedsysMerchantName,
		SecretKey:    cfg.RedsysSecretKey,
		MerchantURL:  cfg.RedsysMerchantURL,
		Sandbox:      cfg.RedsysSandbox,
	}

	discountRepository := postgres_discount_repo.NewDiscountRepository(db, appLogger)
	orderRepository := postgres_order_repo.NewOrderRepository(db, appLogger)
	paymentRepository := postgres_payment_repo.NewPaymentRepository(db, appLogger)
	productRepository := postgres_product_repo.NewProductRepository(db, appLogger)
	outboxRepository := postgres_outbox_repo.NewOutboxRepository(db, appLogger)

	discountService := app_discounts.NewDiscountService(discountRepository,
		appLogger.With(zap.String("component", "DiscountService")))
	productService := app_products.NewProductService(productRepository, productCache,
		cfg.ProductCacheTTL, appLogger.With(zap.String("component", "ProductService")))
	paymentService := app_payments.NewPaymentService(db, paymentRepository, orderRepository,
		productRepository, outboxRepository, productService, gateway,
		cfg.SuccessURL, cfg.FailureURL, cfg.KafkaOrderEventsTopic,
		appLogger.With(zap.String("component", "PaymentService")))
	orderService := app_orders.NewOrderService(db, orderRepository, productRepository,
		outboxRepository, discountService, paymentService, cfg.KafkaOrderEventsTopic,
		appLogger.With(zap.String("component", "OrderService")))

	outboxProcessor := outbox.NewProcessor(db, outboxRepository, kafkaProducer,
		cfg.OutboxPollInterval, cfg.OutboxPollTimeout,
		appLogger.With(zap.String("component", "OutboxProcessor")))
	outboxProcessor.Start(context.Background())
	defer outboxProcessor.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		http_products.RegisterRoutes(r, productService, appLogger)
		http_discounts.RegisterRoutes(r, discountService, appLogger)
		http_orders.RegisterRoutes(r, orderService, appLogger)
		http_payments.RegisterRoutes(r, paymentService, appLogger)
	})

	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Glove shop backend listening", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Glove shop backend stopped.")
}
