package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"

	"libralend/internal/adapters/http/handlers"
	"libralend/internal/adapters/http/middleware"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/config"
	"libralend/internal/core/domain"
	"libralend/internal/core/services"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	txRepo := repositories.NewTransactionRepository(db)

	// Services
	policy := domain.NewAccessPolicy()
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	bookService := services.NewBookService(bookRepo, txRepo, policy)
	userService := services.NewUserService(userRepo, txRepo, policy)
	ledgerService := services.NewLedgerService(txRepo, bookRepo, userRepo, policy)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookHandler := handlers.NewBookHandler(bookService)
	txHandler := handlers.NewTransactionHandler(ledgerService)
	adminHandler := handlers.NewAdminHandler(userService, ledgerService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Catalog routes (reads public, writes admin)
	bookRoutes := apiV1.Group("/books")
	setupBookRoutes(bookRoutes, bookHandler, cfg)

	// Transaction routes (authenticated users)
	txRoutes := apiV1.Group("/transactions")
	txRoutes.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	setupTransactionRoutes(txRoutes, txHandler)

	// Admin routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, adminHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, rate limited against brute force
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg.JWT.Secret), handler.Me)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	// Public reads
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)

	// Admin writes
	auth := middleware.AuthMiddleware(cfg.JWT.Secret)
	admin := middleware.AdminOnly()
	router.Post("/", auth, admin, handler.Create)
	router.Put("/:id", auth, admin, handler.Update)
	router.Delete("/:id", auth, admin, handler.Delete)
}

// setupTransactionRoutes configures borrow/return routes
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Post("/borrow", handler.Borrow)
	router.Post("/return", handler.Return)
	router.Get("/user/:id", handler.History)
}

// setupAdminRoutes configures admin routes
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler) {
	router.Get("/stats", handler.Stats)

	router.Get("/users", handler.ListUsers)
	router.Get("/users/:id", handler.GetUser)
	router.Put("/users/:id", handler.UpdateUserRole)
	router.Delete("/users/:id", handler.DeleteUser)

	router.Get("/transactions", handler.ListTransactions)
	router.Get("/transactions/:id", handler.GetTransaction)
	router.Post("/transactions/:id/approve-borrow", handler.ApproveBorrow)
	router.Post("/transactions/:id/approve-return", handler.ApproveReturn)
}
