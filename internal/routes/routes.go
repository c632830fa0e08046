// Package routes defines the API routing configuration.
// It wires repositories and services together and mounts every handler
// with its middleware.
package routes

import (
	"context"
	"time"

	"apega/internal/config"
	"apega/internal/handlers"
	"apega/internal/metrics"
	"apega/internal/middleware"
	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/repositories/cache"
	"apega/internal/services/auth"
	"apega/internal/services/fees"
	"apega/internal/services/notification"
	"apega/internal/services/order"
	"apega/internal/services/settings"
	"apega/internal/services/wallet"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

// Dependencies is the infrastructure the process owns.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    *cache.CacheService
	Settings *settings.Store
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) error {
	log := deps.Logger

	// Repositories
	userRepo := repositories.NewUserRepository(deps.DB)
	walletRepo := repositories.NewWalletRepository(deps.DB)
	orderRepo := repositories.NewOrderRepository(deps.DB)
	notificationRepo := repositories.NewNotificationRepository(deps.DB)

	minimum, err := decimal.NewFromString(deps.Config.Wallet.MinimumWithdrawal)
	if err != nil {
		return err
	}

	// Services
	calculator := fees.NewCalculator(deps.Settings, deps.Metrics)
	tokens := utils.NewTokenManager(deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL)
	authService := auth.NewService(userRepo, tokens, log.Named("auth"))
	notificationService := notification.NewService(notificationRepo, log)
	walletService := wallet.NewService(
		walletRepo,
		deps.Cache,
		calculator,
		log.Named("wallet"),
		deps.Metrics,
		wallet.WalletConfig{MinimumWithdrawal: minimum},
	)
	orderService := order.NewService(
		orderRepo,
		userRepo,
		repositories.NewTransactor(deps.DB),
		calculator,
		deps.Cache,
		deps.Cache,
		notificationService,
		log.Named("order"),
		deps.Metrics,
		order.Config{LockTTL: deps.Config.Orders.LockTTL},
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	simulatorHandler := handlers.NewSimulatorHandler(calculator, userRepo, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, log)
	adminHandler := handlers.NewAdminHandler(deps.Settings, orderService, walletService, log)
	healthHandler := handlers.NewHealthHandler(version, map[string]handlers.Check{
		"database": func(ctx context.Context) error { return repositories.Ping(ctx, deps.DB) },
		"redis":    deps.Cache.HealthCheck,
	}).WithStat("redis_pool", func() interface{} { return deps.Cache.GetStats() })
	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo, log)

	// Public routes
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	authRoutes := api.Group("/auth", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/admin-login", authHandler.AdminLogin)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	api.Post("/simulator", simulatorHandler.Simulate)

	// Authenticated routes
	protected := api.Group("", authMiddleware.Handler)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/products/preview", middleware.HasPermission(models.PermissionListing), simulatorHandler.PreviewListing)

	orders := protected.Group("/orders")
	orders.Post("/", middleware.HasPermission(models.PermissionOrderWrite), orderHandler.Checkout)
	orders.Get("/", middleware.HasPermission(models.PermissionOrderRead), orderHandler.ListOrders)
	orders.Get("/:id", middleware.HasPermission(models.PermissionOrderRead), orderHandler.GetOrder)
	orders.Patch("/:id/status", middleware.HasPermission(models.PermissionOrderWrite), orderHandler.UpdateStatus)

	walletRoutes := protected.Group("/wallet")
	walletRoutes.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetWallet)
	walletRoutes.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetTransactions)
	walletRoutes.Post("/withdrawals", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.RequestWithdrawal)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Patch("/read-all", notificationHandler.MarkAllRead)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Get("/settings", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.GetSettings)
	admin.Put("/settings", middleware.HasPermission(models.PermissionSettings), adminHandler.UpdateSettings)
	admin.Put("/settings/:key", middleware.HasPermission(models.PermissionSettings), adminHandler.UpdateSetting)
	admin.Get("/orders/summary", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.OrdersSummary)
	admin.Post("/withdrawals/:id/:action", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ProcessWithdrawal)
	admin.Put("/users/:id/subscription", middleware.HasPermission(models.PermissionWriteAdmin), authHandler.UpdateSubscription)

	return nil
}
