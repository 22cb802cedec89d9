// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/domain/auth"
	"shopcore/internal/infrastructure/http/v1/handlers"
	"shopcore/internal/infrastructure/http/v1/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Product     *handlers.ProductHandler
	Voucher     *handlers.VoucherHandler
	Order       *handlers.OrderHandler
	Transaction *handlers.TransactionHandler
	Payment     *handlers.PaymentHandler
	Stock       *handlers.StockHandler
}

// NewRouter builds the gin engine with middleware and all v1 routes.
func NewRouter(h Handlers, validator middleware.JWTValidator) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	engine.GET("/health/live", h.Health.Live)
	engine.GET("/health/ready", h.Health.Ready)

	api := engine.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)

		authed := authGroup.Group("", middleware.Auth(validator))
		authed.POST("/logout", h.Auth.Logout)
		authed.GET("/me", h.Auth.Me)
	}

	users := api.Group("/users", middleware.Auth(validator), middleware.RequireAdmin())
	{
		users.GET("", h.Auth.ListUsers)
		users.PUT("/:id/roles", h.Auth.SetRoles)
	}

	products := api.Group("/products")
	{
		// catalog reads are public for the storefront
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.GetByID)

		writes := products.Group("", middleware.Auth(validator), middleware.RequireCapability(auth.CapProductWrite))
		writes.POST("", h.Product.Create)
		writes.PUT("/:id", h.Product.Update)
		writes.DELETE("/:id", h.Product.Delete)

		products.GET("/:id/stock-history",
			middleware.Auth(validator), middleware.RequireCapability(auth.CapStockRead),
			h.Stock.ProductHistory)
	}

	vouchers := api.Group("/vouchers", middleware.Auth(validator))
	{
		manage := vouchers.Group("", middleware.RequireCapability(auth.CapVoucherWrite))
		manage.GET("", h.Voucher.List)
		manage.GET("/:id", h.Voucher.GetByID)
		manage.POST("", h.Voucher.Create)
		manage.POST("/from-order", h.Voucher.CreateFromOrder)
		manage.PUT("/:id", h.Voucher.Update)
		manage.DELETE("/:id", h.Voucher.Delete)
		manage.POST("/:id/cancel", h.Voucher.Cancel)

		approvals := vouchers.Group("", middleware.RequireCapability(auth.CapVoucherApprove))
		approvals.POST("/:id/approve", h.Voucher.Approve)
		approvals.POST("/:id/reject", h.Voucher.Reject)

		vouchers.GET("/:id/stock-history",
			middleware.RequireCapability(auth.CapStockRead),
			h.Stock.VoucherHistory)
	}

	orders := api.Group("/orders", middleware.Auth(validator))
	{
		orders.POST("", h.Order.Create)
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.GetByID)
		orders.POST("/:id/pay", h.Order.Pay)
		orders.POST("/:id/cancel", h.Order.Cancel)

		orders.PUT("/:id/status",
			middleware.RequireCapability(auth.CapOrderManage),
			h.Order.SetStatus)
	}

	payments := api.Group("/payments", middleware.Auth(validator))
	{
		payments.POST("", h.Payment.Begin)
		payments.GET("/:id", h.Payment.GetByID)
		payments.POST("/:id/resolve", h.Payment.Resolve)
	}

	transactions := api.Group("/transactions", middleware.Auth(validator))
	{
		reads := transactions.Group("", middleware.RequireCapability(auth.CapFinanceRead))
		reads.GET("", h.Transaction.List)
		reads.GET("/summary", h.Transaction.Summary)
		reads.GET("/breakdown", h.Transaction.Breakdown)
		reads.GET("/:id", h.Transaction.GetByID)

		transactions.POST("",
			middleware.RequireCapability(auth.CapFinanceWrite),
			h.Transaction.Create)
	}

	stockGroup := api.Group("/stock", middleware.Auth(validator), middleware.RequireCapability(auth.CapStockRead))
	{
		stockGroup.GET("/history", h.Stock.History)
	}

	return engine
}
