// Package main is the entry point for the celltrade API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"celltrade/internal/domain/auth"
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/catalogs/product"
	"celltrade/internal/domain/documents/purchase"
	"celltrade/internal/domain/documents/sale"
	"celltrade/internal/domain/expense"
	"celltrade/internal/domain/ledger"
	"celltrade/internal/domain/payment"
	v1 "celltrade/internal/infrastructure/http/v1"
	"celltrade/internal/infrastructure/storage/postgres"
	"celltrade/internal/infrastructure/storage/postgres/auth_repo"
	"celltrade/internal/infrastructure/storage/postgres/catalog_repo"
	"celltrade/internal/infrastructure/storage/postgres/document_repo"
	"celltrade/internal/infrastructure/storage/postgres/register_repo"
	"celltrade/internal/infrastructure/storage/postgres/report_repo"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting celltrade server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	counterpartyRepo := catalog_repo.NewCounterpartyRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)
	paymentRepo := document_repo.NewPaymentRepo(txManager)
	expenseRepo := document_repo.NewExpenseRepo(txManager)
	inventoryRepo := register_repo.NewInventoryRepo(txManager)
	sessionRepo := register_repo.NewSessionRepo(txManager)
	ledgerSource := report_repo.NewLedgerSource(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Shared services ---
	numeratorService := numerator.New(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Auth ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	// --- Domain services ---
	counterpartyService := counterparty.NewService(
		counterpartyRepo, txManager, numeratorService,
		paymentRepo, saleRepo, purchaseRepo,
	)
	productService := product.NewService(productRepo, txManager, numeratorService)

	sessionService := cashregister.NewService(sessionRepo, txManager, numeratorService, auditService)

	saleService := sale.NewService(
		saleRepo, inventoryRepo, counterpartyRepo, sessionRepo,
		txManager, numeratorService, auditService,
		sale.Config{RequireOpenSession: getEnv("SALE_REQUIRE_OPEN_SESSION", "false") == "true"},
	)
	purchaseService := purchase.NewService(
		purchaseRepo, inventoryRepo, counterpartyRepo,
		txManager, numeratorService, auditService,
	)
	paymentService := payment.NewService(
		paymentRepo, counterpartyRepo, sessionRepo,
		txManager, numeratorService, auditService,
	)
	expenseService := expense.NewService(
		expenseRepo, sessionRepo, txManager, numeratorService, auditService,
	)

	ledgerService := ledger.NewService(ledgerSource, counterpartyRepo)
	ledgerAuditor := ledger.NewAuditor(ledgerSource, counterpartyRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		TokenValidator:      jwtService,
		AuthService:         authService,
		CounterpartyService: counterpartyService,
		ProductService:      productService,
		SaleService:         saleService,
		PurchaseService:     purchaseService,
		PaymentService:      paymentService,
		ExpenseService:      expenseService,
		SessionService:      sessionService,
		LedgerService:       ledgerService,
		LedgerAuditor:       ledgerAuditor,
		Items:               inventoryRepo,
	})

	// --- HTTP Server ---
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

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

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
