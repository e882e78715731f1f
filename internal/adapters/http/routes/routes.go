package routes

import (
	"shelfmate/internal/adapters/http/handlers"
	"shelfmate/internal/adapters/http/middleware"
	"shelfmate/internal/adapters/persistence/repositories"
	"shelfmate/internal/config"
	"shelfmate/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	notifyService := services.NewNotificationService(notifRepo)
	rewardService := services.NewRewardService(rewardRepo)
	loanService := services.NewLoanService(
		loanRepo,
		nil, // wall clock
		notifyService,
		rewardService,
		services.LoanPolicy{
			LoanPeriodDays: cfg.Loans.LoanPeriodDays,
			FinePerDay:     cfg.Loans.FinePerDay,
		},
	)
	catalogService := services.NewCatalogService(bookRepo, loanService)
	dashboardService := services.NewDashboardService(db, loanService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(catalogService)
	loanHandler := handlers.NewLoanHandler(loanService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	notificationHandler := handlers.NewNotificationHandler(notifRepo)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, stricter rate limit)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Book routes (catalog is public to browse, staff to manage)
	bookRoutes := apiV1.Group("/books")
	setupBookRoutes(bookRoutes, bookHandler, cfg)

	// Loan routes (authenticated users)
	loanRoutes := apiV1.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLoanRoutes(loanRoutes, loanHandler)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler)

	// Reward routes
	rewardRoutes := apiV1.Group("/rewards")
	rewardRoutes.Use(middleware.AuthMiddleware(cfg))
	setupRewardRoutes(rewardRoutes, rewardHandler)

	// Notification routes
	notifRoutes := apiV1.Group("/notifications")
	notifRoutes.Use(middleware.AuthMiddleware(cfg))
	setupNotificationRoutes(notifRoutes, notificationHandler)

	// Dashboard routes (Librarian/Admin only)
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.LibrarianOrAdmin())
	dashboardRoutes.Get("/", dashboardHandler.Get)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	// Public browse
	router.Get("/", handler.List)
	router.Get("/search", handler.Search)
	router.Get("/:id/status", handler.Status)
	router.Get("/:id", handler.Get)

	// Staff manage
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Update)
	router.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), handler.Delete)
}

// setupLoanRoutes configures loan lifecycle routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Borrower actions
	router.Post("/", handler.Borrow)
	router.Get("/my", handler.My)
	router.Post("/:id/extend", handler.Extend)
	router.Post("/:id/return", handler.Return)

	// Staff actions
	router.Get("/", middleware.LibrarianOrAdmin(), handler.List)
	router.Get("/overdue", middleware.LibrarianOrAdmin(), handler.Overdue)
	router.Post("/:id/approve", middleware.LibrarianOrAdmin(), handler.Approve)
	router.Post("/:id/reject", middleware.LibrarianOrAdmin(), handler.Reject)
	router.Post("/:id/return/approve", middleware.LibrarianOrAdmin(), handler.ApproveReturn)
	router.Post("/:id/lost", middleware.LibrarianOrAdmin(), handler.Lost)
	router.Post("/:id/found", middleware.LibrarianOrAdmin(), handler.Found)
	router.Post("/:id/fine/pay", middleware.LibrarianOrAdmin(), handler.PayFine)

	// Register after the static segments so /my and /overdue do not match :id
	router.Get("/:id", handler.Get)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	// Any authenticated user can change their own password
	router.Put("/me/password", handler.ChangePassword)

	// Admin only
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Get("/:id", middleware.AdminOnly(), handler.Get)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupRewardRoutes configures reward routes
func setupRewardRoutes(router fiber.Router, handler *handlers.RewardHandler) {
	router.Get("/my", handler.My)
	router.Post("/extension", middleware.LibrarianOrAdmin(), handler.Grant)
}

// setupNotificationRoutes configures notification routes
func setupNotificationRoutes(router fiber.Router, handler *handlers.NotificationHandler) {
	router.Get("/", handler.List)
	router.Post("/read-all", handler.MarkAllRead)
	router.Post("/:id/read", handler.MarkRead)
}
