// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"celltrade/internal/core/security"
	"celltrade/internal/domain/auth"
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/catalogs/product"
	"celltrade/internal/domain/documents/purchase"
	"celltrade/internal/domain/documents/sale"
	"celltrade/internal/domain/expense"
	"celltrade/internal/domain/inventory"
	"celltrade/internal/domain/ledger"
	"celltrade/internal/domain/payment"
	"celltrade/internal/infrastructure/http/v1/handlers"
	"celltrade/internal/infrastructure/http/v1/middleware"
	"celltrade/internal/infrastructure/storage/postgres"
	"celltrade/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// TokenValidator for JWT validation
	TokenValidator middleware.TokenValidator

	AuthService         *auth.Service
	CounterpartyService *counterparty.Service
	ProductService      *product.Service
	SaleService         *sale.Service
	PurchaseService     *purchase.Service
	PaymentService      *payment.Service
	ExpenseService      *expense.Service
	SessionService      *cashregister.Service
	LedgerService       *ledger.Service
	LedgerAuditor       *ledger.Auditor
	Items               inventory.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		apiV1.POST("/auth/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))

		protected.POST("/auth/register", authHandler.Register)
		protected.GET("/auth/me", authHandler.Me)

		registerCatalogRoutes(protected, base, cfg)
		registerDocumentRoutes(protected, base, cfg)
		registerRegisterRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
	}

	return router
}

// requireCap shortens per-route capability gating.
func requireCap(c security.Capability) gin.HandlerFunc {
	return middleware.RequireCapability(c)
}

// registerCatalogRoutes registers counterparty and product endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	cpHandler := handlers.NewCounterpartyHandler(base, cfg.CounterpartyService)
	cp := rg.Group("/catalog/counterparty")
	{
		cp.GET("", cpHandler.List)
		cp.GET("/:id", cpHandler.Get)
		cp.GET("/code/:code", cpHandler.GetByCode)
		cp.POST("", requireCap(security.CapCatalogWrite), cpHandler.Create)
		cp.PUT("/:id", requireCap(security.CapCatalogWrite), cpHandler.Update)
		cp.DELETE("/:id", requireCap(security.CapCatalogWrite), cpHandler.Archive)
		cp.POST("/:id/restore", requireCap(security.CapCatalogWrite), cpHandler.Restore)
		cp.DELETE("/:id/hard", requireCap(security.CapCatalogDelete), cpHandler.HardDelete)
	}

	prodHandler := handlers.NewProductHandler(base, cfg.ProductService)
	prod := rg.Group("/catalog/product")
	{
		prod.GET("", prodHandler.List)
		prod.GET("/:id", prodHandler.Get)
		prod.GET("/code/:code", prodHandler.GetByCode)
		prod.POST("", requireCap(security.CapCatalogWrite), prodHandler.Create)
		prod.PUT("/:id", requireCap(security.CapCatalogWrite), prodHandler.Update)
		prod.DELETE("/:id", requireCap(security.CapCatalogWrite), prodHandler.Archive)
		prod.POST("/:id/restore", requireCap(security.CapCatalogWrite), prodHandler.Restore)
	}
}

// registerDocumentRoutes registers sale, purchase, payment, and expense
// endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	saleHandler := handlers.NewSaleHandler(base, cfg.SaleService)
	sales := rg.Group("/document/sale")
	{
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.POST("", requireCap(security.CapSaleCreate), saleHandler.Create)
		sales.PUT("/:id", requireCap(security.CapSaleEdit), saleHandler.Update)
		sales.DELETE("/:id", requireCap(security.CapSaleDelete), saleHandler.Delete)
	}

	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.PurchaseService)
	purchases := rg.Group("/document/purchase")
	{
		purchases.GET("", purchaseHandler.List)
		purchases.GET("/:id", purchaseHandler.Get)
		purchases.POST("", requireCap(security.CapPurchaseCreate), purchaseHandler.Create)
		purchases.PUT("/:id", requireCap(security.CapPurchaseEdit), purchaseHandler.Update)
		purchases.DELETE("/:id", requireCap(security.CapPurchaseDelete), purchaseHandler.Delete)
	}

	paymentHandler := handlers.NewPaymentHandler(base, cfg.PaymentService)
	payments := rg.Group("/document/payment")
	{
		payments.GET("", paymentHandler.List)
		payments.GET("/:id", paymentHandler.Get)
		payments.POST("", requireCap(security.CapPaymentRecord), paymentHandler.Create)
		payments.PUT("/:id", requireCap(security.CapPaymentEdit), paymentHandler.Update)
		payments.DELETE("/:id", requireCap(security.CapPaymentEdit), paymentHandler.Delete)
	}

	expenseHandler := handlers.NewExpenseHandler(base, cfg.ExpenseService)
	expenses := rg.Group("/document/expense")
	{
		expenses.GET("", expenseHandler.List)
		expenses.GET("/:id", expenseHandler.Get)
		expenses.POST("", requireCap(security.CapExpenseRecord), expenseHandler.Create)
		expenses.PUT("/:id", requireCap(security.CapExpenseRecord), expenseHandler.Update)
		expenses.DELETE("/:id", requireCap(security.CapExpenseRecord), expenseHandler.Delete)
	}
}

// registerRegisterRoutes registers cash session and inventory endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	sessionHandler := handlers.NewSessionHandler(base, cfg.SessionService)
	sessions := rg.Group("/register/session")
	{
		sessions.GET("", sessionHandler.List)
		sessions.GET("/current", sessionHandler.Current)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.POST("/open", requireCap(security.CapSessionOpen), sessionHandler.Open)
		sessions.POST("/:id/close", requireCap(security.CapSessionClose), sessionHandler.Close)
	}

	inventoryHandler := handlers.NewInventoryHandler(base, cfg.Items)
	items := rg.Group("/inventory/item")
	{
		items.GET("", inventoryHandler.List)
		items.GET("/imei/:imei", inventoryHandler.GetByIMEI)
		items.GET("/:id", inventoryHandler.Get)
	}
}

// registerReportRoutes registers ledger statement and audit endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	ledgerHandler := handlers.NewLedgerHandler(base, cfg.LedgerService, cfg.LedgerAuditor)
	reports := rg.Group("/report")
	{
		reports.GET("/statement/:id", ledgerHandler.Statement)
		reports.POST("/audit-balances", requireCap(security.CapAudit), ledgerHandler.AuditBalances)
	}
}
