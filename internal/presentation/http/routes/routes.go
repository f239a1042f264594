package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/refundify-api/internal/config"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/handler"
	"github.com/sangkips/refundify-api/internal/presentation/http/middleware"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Tenant   *handler.TenantHandler
	Product  *handler.ProductHandler
	Category *handler.CategoryHandler
	Unit     *handler.UnitHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Refund   *handler.RefundHandler
	Exchange *handler.ExchangeHandler
	Customer *handler.CustomerHandler
	User     *handler.UserHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	TenantRepo      domainRepo.TenantRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Per-tenant rate limiter
	rateLimiter := middleware.NewTenantRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
		BurstSize:         deps.Cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "ok",
			"service":    deps.Cfg.App.Name,
			"rate_limit": rateLimiter.Stats(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Resolve the tenant for the authenticated user; repositories
		// refuse unscoped reads, so this must run before any handler.
		protected.Use(middleware.TenantMiddleware(deps.TenantRepo))

		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

// idempotent wraps a money-moving POST route with replay protection.
func idempotent(deps *Deps) gin.HandlerFunc {
	return middleware.IdempotencyRequired(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		KeyTTL: deps.Cfg.Idempotency.KeyTTL,
	})
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.RefreshToken)
		// Google OAuth routes
		auth.GET("/google", h.Auth.GoogleAuth)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile", h.Auth.UpdateProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	// Tenants
	registerTenantRoutes(protected, h)

	// Products
	registerProductRoutes(protected, h)

	// Categories
	registerCategoryRoutes(protected, h)

	// Units
	registerUnitRoutes(protected, h)

	// Orders
	registerOrderRoutes(protected, h, deps)

	// Payments
	registerPaymentRoutes(protected, h, deps)

	// Refunds
	registerRefundRoutes(protected, h, deps)

	// Exchanges
	registerExchangeRoutes(protected, h, deps)

	// Customers
	registerCustomerRoutes(protected, h)

	// Users (Admin)
	registerUserRoutes(protected, h)

	// Roles (Admin)
	registerRoleRoutes(protected, h)

	// Permissions (Admin)
	registerPermissionRoutes(protected, h)

	// Super Admin routes
	registerAdminRoutes(protected, h)
}

func registerTenantRoutes(protected *gin.RouterGroup, h *Handlers) {
	tenants := protected.Group("/tenants")
	{
		tenants.GET("", h.Tenant.ListTenants)
		tenants.POST("", h.Tenant.Create)
		tenants.GET("/current", h.Tenant.GetCurrentTenant)
		tenants.PUT("/current", h.Tenant.UpdateTenant)
		tenants.GET("/current/members", h.Tenant.ListMembers)
		tenants.POST("/current/members", h.Tenant.InviteMember)
		tenants.PUT("/current/members/:user_id", h.Tenant.UpdateMemberRole)
		tenants.DELETE("/current/members/:user_id", h.Tenant.RemoveMember)
	}
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers) {
	products := protected.Group("/products")
	products.Use(middleware.RequirePermission("manage-products"))
	{
		products.GET("", h.Product.List)
		products.POST("", h.Product.Create)
		products.POST("/import", h.Product.ImportProducts)
		products.GET("/low-stock", h.Product.GetLowStock)
		products.GET("/:slug", h.Product.Get)
		products.PUT("/:slug", h.Product.Update)
		products.DELETE("/:slug", h.Product.Delete)
	}
}

func registerCategoryRoutes(protected *gin.RouterGroup, h *Handlers) {
	categories := protected.Group("/categories")
	categories.Use(middleware.RequirePermission("manage-categories"))
	{
		categories.GET("", h.Category.List)
		categories.POST("", h.Category.Create)
		categories.PUT("/:id", h.Category.Update)
		categories.DELETE("/:id", h.Category.Delete)
	}
}

func registerUnitRoutes(protected *gin.RouterGroup, h *Handlers) {
	units := protected.Group("/units")
	units.Use(middleware.RequirePermission("manage-units"))
	{
		units.GET("", h.Unit.List)
		units.POST("", h.Unit.Create)
		units.PUT("/:id", h.Unit.Update)
		units.DELETE("/:id", h.Unit.Delete)
	}
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	orders := protected.Group("/orders")
	orders.Use(middleware.RequireTenant())
	orders.Use(middleware.RequirePermission("manage-orders"))
	{
		orders.GET("", h.Order.List)
		// Order creation uses idempotency middleware to prevent duplicates
		orders.POST("", idempotent(deps), h.Order.Create)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/complete", h.Order.Complete)
		orders.POST("/:id/cancel", h.Order.Cancel)
	}
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payments")
	payments.Use(middleware.RequireTenant())
	payments.Use(middleware.RequirePermission("manage-orders"))
	{
		payments.POST("", idempotent(deps), h.Payment.Capture)
		payments.GET("/:id", h.Payment.Get)
		payments.GET("/:id/refunds", h.Payment.RefundHistory)
	}

	// Full-order refund sits under the payment but needs refund permission
	refundOnPayment := protected.Group("/payments")
	refundOnPayment.Use(middleware.RequireTenant())
	refundOnPayment.Use(middleware.RequirePermission("manage-refunds"))
	{
		refundOnPayment.POST("/:id/refund", idempotent(deps), h.Payment.FullRefund)
	}
}

func registerRefundRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	refunds := protected.Group("/refunds")
	refunds.Use(middleware.RequireTenant())
	refunds.Use(middleware.RequirePermission("manage-refunds"))
	{
		// Preview is read-only and safe to repeat
		refunds.POST("/calculate", h.Refund.Calculate)
		refunds.POST("", idempotent(deps), h.Refund.Process)
	}
}

func registerExchangeRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	exchanges := protected.Group("/exchanges")
	exchanges.Use(middleware.RequireTenant())
	exchanges.Use(middleware.RequirePermission("manage-refunds"))
	{
		exchanges.POST("", idempotent(deps), h.Exchange.Initiate)
		exchanges.GET("/:id", h.Exchange.Get)
		exchanges.GET("/:id/balance", h.Exchange.Balance)
		exchanges.POST("/:id/new-order", idempotent(deps), h.Exchange.CreateNewOrder)
		exchanges.POST("/:id/complete", idempotent(deps), h.Exchange.Complete)
		exchanges.POST("/:id/cancel", h.Exchange.Cancel)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	customers.Use(middleware.RequirePermission("manage-customers"))
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.POST("/:id/credit", h.Customer.Credit)
		customers.DELETE("/:id", h.Customer.Delete)
	}
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	users.Use(middleware.RequirePermission("manage-users"))
	{
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id/roles", h.User.UpdateRoles)
		users.DELETE("/:id", h.User.Delete)
	}
}

func registerRoleRoutes(protected *gin.RouterGroup, h *Handlers) {
	roles := protected.Group("/roles")
	roles.Use(middleware.RequirePermission("manage-users"))
	{
		roles.GET("", h.User.ListRoles)
	}
}

func registerPermissionRoutes(protected *gin.RouterGroup, h *Handlers) {
	permissions := protected.Group("/permissions")
	permissions.Use(middleware.RequirePermission("manage-users"))
	{
		permissions.GET("", h.User.ListPermissions)
	}
}

func registerAdminRoutes(protected *gin.RouterGroup, h *Handlers) {
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole("super-admin"))
	{
		admin.POST("/tenants/assign-user", h.Tenant.AssignUserToTenant)
	}
}
