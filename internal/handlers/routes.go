package handlers

import (
	"playarena/internal/middleware"
	"playarena/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Match        *MatchHandler
	Wallet       *WalletHandler
	Withdrawal   *WithdrawalHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
	Health       *HealthHandler
}

// RouteOptions carries the middleware routes are wrapped in.
type RouteOptions struct {
	Auth fiber.Handler
	// MoneyLimiter throttles joins, deposits and withdrawals; nil disables it
	MoneyLimiter fiber.Handler
}

func SetupRoutes(app *fiber.App, h Handlers, opts RouteOptions) {
	limit := opts.MoneyLimiter
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public routes
	setupPublicRoutes(app, h)

	// Authenticated routes
	api := app.Group("/api", opts.Auth)

	// Setup different route groups
	setupMatchRoutes(api, h.Match, limit)
	setupWalletRoutes(api, h.Wallet, limit)
	setupWithdrawalRoutes(api, h.Withdrawal, limit)
	setupAdminRoutes(api, h)

	api.Get("/notifications", h.Notification.List)
	api.Post("/notifications/:id/read", h.Notification.MarkRead)
}

func setupPublicRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Health)
	app.Get("/api/health", h.Health.Health)

	webhooks := app.Group("/api/webhooks")
	webhooks.Post("/payments", h.Wallet.PaymentWebhook)
	webhooks.Post("/stripe", h.Wallet.StripeWebhook)
}

func setupMatchRoutes(router fiber.Router, h *MatchHandler, limit fiber.Handler) {
	play := middleware.HasPermission(models.PermissionMatchPlay)
	manage := middleware.HasPermission(models.PermissionMatchManage)

	matches := router.Group("/matches")
	matches.Get("/", h.List)
	matches.Get("/:id", h.Get)
	matches.Post("/:id/join", play, limit, h.Join)
	matches.Post("/:id/leave", play, limit, h.Leave)
	matches.Get("/:id/room", play, h.Room)

	// Match administration
	matches.Post("/", manage, h.Create)
	matches.Delete("/:id", manage, h.Delete)
	matches.Post("/:id/open-registration", manage, h.OpenRegistration)
	matches.Post("/:id/room-credentials", manage, h.SetRoomCredentials)
	matches.Post("/:id/start", manage, h.Start)
	matches.Post("/:id/results", manage, h.SubmitResults)
	matches.Post("/:id/complete", manage, h.Complete)
	matches.Post("/:id/cancel", manage, h.Cancel)
	matches.Post("/:id/refunds/retry", manage, h.RetryRefunds)
}

func setupWalletRoutes(router fiber.Router, h *WalletHandler, limit fiber.Handler) {
	wallet := router.Group("/wallet")
	wallet.Get("/", middleware.HasPermission(models.PermissionWalletRead), h.GetWallet)
	wallet.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), h.Transactions)
	wallet.Post("/deposits", middleware.HasPermission(models.PermissionWalletWrite), limit, h.InitiateDeposit)
	wallet.Post("/deposits/verify", middleware.HasPermission(models.PermissionWalletWrite), limit, h.VerifyDeposit)
}

func setupWithdrawalRoutes(router fiber.Router, h *WithdrawalHandler, limit fiber.Handler) {
	write := middleware.HasPermission(models.PermissionWalletWrite)
	manage := middleware.HasPermission(models.PermissionWithdrawalManage)

	withdrawals := router.Group("/withdrawals")
	// static paths before /:id
	withdrawals.Get("/check-eligibility", h.Eligibility)
	withdrawals.Get("/payment-methods", h.PaymentMethods)
	withdrawals.Post("/", write, limit, h.Create)
	withdrawals.Get("/", h.List)
	withdrawals.Get("/:id", h.Get)
	withdrawals.Delete("/:id", write, h.Cancel)

	withdrawals.Post("/:id/approve", manage, h.Approve)
	withdrawals.Post("/:id/complete", manage, h.Complete)
	withdrawals.Post("/:id/reject", manage, h.Reject)
}

func setupAdminRoutes(router fiber.Router, h Handlers) {
	admin := router.Group("/admin")
	admin.Get("/withdrawals", middleware.HasPermission(models.PermissionWithdrawalManage), h.Withdrawal.Queue)
	admin.Get("/users/:id/reconcile", middleware.HasPermission(models.PermissionUserManage), h.Admin.Reconcile)
	admin.Patch("/users/:id", middleware.HasPermission(models.PermissionUserManage), h.Admin.UpdateUserFlags)
	admin.Get("/logs", middleware.RequireRole(models.RoleAdmin), h.Admin.Logs)
}
