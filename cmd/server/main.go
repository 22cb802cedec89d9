// Package main is the entry point for the shopcore API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcore/internal/domain/auth"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/domain/documents/order"
	"shopcore/internal/domain/documents/voucher"
	"shopcore/internal/domain/finance"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/registers/stock"
	v1 "shopcore/internal/infrastructure/http/v1"
	"shopcore/internal/infrastructure/http/v1/handlers"
	"shopcore/internal/infrastructure/storage/postgres"
	"shopcore/pkg/logger"
)

const version = "1.0.0"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting shopcore server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	numbers := postgres.NewNumerator(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txManager)
	voucherRepo := postgres.NewVoucherRepo(txManager)
	orderRepo := postgres.NewOrderRepo(txManager)
	stockHistoryRepo := postgres.NewStockHistoryRepo(txManager)
	transactionRepo := postgres.NewTransactionRepo(txManager)
	paymentRepo := postgres.NewPaymentSessionRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)
	tokenRepo := postgres.NewTokenRepo(txManager)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Domain services ---
	productService := product.NewService(productRepo, txManager)
	stockService := stock.NewService(productRepo, stockHistoryRepo)
	financeService := finance.NewService(transactionRepo, numbers, txManager)

	voucherService := voucher.NewService(
		voucherRepo, productRepo, stockService, numbers, txManager, financeService)
	orderService := order.NewService(
		orderRepo, productRepo, financeService, voucherService, txManager)
	voucherService.SetOrderSource(orderService)

	voucherService.SetAuditor(auditService)
	orderService.SetAuditor(auditService)

	paymentConfig := payment.DefaultConfig()
	if ttl := getEnvDuration("PAYMENT_SESSION_TTL", 0); ttl > 0 {
		paymentConfig.SessionTTL = ttl
	}
	paymentService := payment.NewService(paymentRepo, orderService, txManager, paymentConfig)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	paymentService.StartSweeper(sweepCtx)

	// --- HTTP ---
	base := handlers.NewBaseHandler()
	router := v1.NewRouter(v1.Handlers{
		Health:      handlers.NewHealthHandler(pool, version),
		Auth:        handlers.NewAuthHandler(base, authService),
		Product:     handlers.NewProductHandler(base, productService),
		Voucher:     handlers.NewVoucherHandler(base, voucherService),
		Order:       handlers.NewOrderHandler(base, orderService),
		Transaction: handlers.NewTransactionHandler(base, financeService),
		Payment:     handlers.NewPaymentHandler(base, paymentService),
		Stock:       handlers.NewStockHandler(base, stockService),
	}, jwtService)

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
