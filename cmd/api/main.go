package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/config"
	"github.com/sangkips/refundify-api/internal/infrastructure/database"
	"github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/handler"
	"github.com/sangkips/refundify-api/internal/presentation/http/routes"
	"github.com/sangkips/refundify-api/pkg/oauth"
	"github.com/sangkips/refundify-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	uow := repository.NewUnitOfWork(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transactionRepo := repository.NewPaymentTransactionRepository(db)
	refundItemRepo := repository.NewRefundItemRepository(db)
	auditLogRepo := repository.NewRefundAuditLogRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Initialize services
	authService := service.NewAuthService(userRepo, roleRepo, jwtManager, googleOAuthService)
	tenantService := service.NewTenantService(tenantRepo)
	productService := service.NewProductService(productRepo, categoryRepo, unitRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	unitService := service.NewUnitService(unitRepo)
	orderService := service.NewOrderService(orderRepo, orderItemRepo, productRepo, customerRepo)
	paymentService := service.NewPaymentService(uow, paymentRepo, transactionRepo, orderRepo)
	customerService := service.NewCustomerService(customerRepo)
	userService := service.NewUserService(userRepo, roleRepo, permissionRepo)

	refundCalculator := service.NewRefundCalculator()
	refundValidator := service.NewRefundValidator(refundItemRepo)
	refundService := service.NewRefundService(
		uow, paymentRepo, transactionRepo, orderRepo, orderItemRepo,
		refundItemRepo, auditLogRepo, tenantRepo, refundCalculator, refundValidator,
	)
	exchangeService := service.NewExchangeService(
		uow, exchangeRepo, orderRepo, paymentRepo, transactionRepo,
		auditLogRepo, refundItemRepo, refundService, orderService,
		paymentService, tenantRepo, refundValidator,
	)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Tenant:   handler.NewTenantHandler(tenantService),
		Product:  handler.NewProductHandler(productService),
		Category: handler.NewCategoryHandler(categoryService),
		Unit:     handler.NewUnitHandler(unitService),
		Order:    handler.NewOrderHandler(orderService),
		Payment:  handler.NewPaymentHandler(paymentService, refundService),
		Refund:   handler.NewRefundHandler(refundService),
		Exchange: handler.NewExchangeHandler(exchangeService),
		Customer: handler.NewCustomerHandler(customerService),
		User:     handler.NewUserHandler(userService),
	}

	// Sweep expired idempotency keys so replay storage stays bounded.
	go func() {
		ticker := time.NewTicker(cfg.Idempotency.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := idempotencyRepo.DeleteExpired(context.Background()); err != nil {
				log.Printf("Failed to sweep expired idempotency keys: %v", err)
			}
		}
	}()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		TenantRepo:      tenantRepo,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
