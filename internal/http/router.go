package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hwmarket/backend/internal/config"
	"github.com/hwmarket/backend/internal/http/handlers"
	"github.com/hwmarket/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	listingHandler *handlers.ListingHandler,
	orderHandler *handlers.OrderHandler,
	disputeHandler *handlers.DisputeHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler(cfg)
	api.Get("/meta/categories", metaHandler.GetCategories)
	api.Get("/meta/marketplace", metaHandler.GetMarketplaceInfo)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Profile
	protected.Get("/me", authHandler.GetMe)
	protected.Put("/me", authHandler.UpdateMe)

	// Listings
	protected.Post("/listings", listingHandler.CreateListing)
	protected.Post("/listings/import", listingHandler.ImportListing)
	protected.Get("/listings", listingHandler.SearchListings)
	protected.Get("/listings/:id", listingHandler.GetListing)
	protected.Put("/listings/:id", listingHandler.UpdateListing)

	// Orders + escrow lifecycle
	protected.Post("/orders", orderHandler.Checkout)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/ship", orderHandler.MarkShipped)
	protected.Post("/orders/:id/confirm-delivery", orderHandler.ConfirmDelivery)
	protected.Get("/orders/:id/audit", orderHandler.GetAuditTrail)
	protected.Post("/orders/:id/dispute", disputeHandler.OpenDispute)

	// Disputes (participants)
	protected.Get("/disputes", disputeHandler.ListMyDisputes)
	protected.Get("/disputes/:id", disputeHandler.GetDispute)

	// Adjudication
	admin := protected.Group("/admin", middleware.AdjudicatorMiddleware())
	admin.Get("/disputes", adminHandler.ListDisputes)
	admin.Get("/disputes/:id", adminHandler.GetDispute)
	admin.Post("/disputes/:id/review", adminHandler.StartReview)
	admin.Post("/disputes/:id/verdict", adminHandler.IssueVerdict)
	admin.Get("/audit/:id", adminHandler.GetAuditTrail)
	admin.Post("/listings/:id/suspend", adminHandler.SuspendListing)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
