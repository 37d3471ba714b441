package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hwmarket/backend/internal/config"
	"github.com/hwmarket/backend/internal/db"
	"github.com/hwmarket/backend/internal/events"
	apphttp "github.com/hwmarket/backend/internal/http"
	"github.com/hwmarket/backend/internal/http/handlers"
	"github.com/hwmarket/backend/internal/listingparser"
	"github.com/hwmarket/backend/internal/repositories"
	"github.com/hwmarket/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Persistence
	stores := repositories.NewPG(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	parser := listingparser.NewParser(cfg.ImportFetchTimeoutMS, cfg.ImportFetchMaxRetries, log)
	escrowService := services.NewEscrowService(stores, publisher, log)
	adjudicator := services.NewRoleAdjudicator(stores.Profiles())
	disputeService := services.NewDisputeService(stores, escrowService, adjudicator, publisher, log)
	orderService := services.NewOrderService(stores, escrowService, publisher, log)
	catalogService := services.NewCatalogService(stores, parser, log)
	accountService := services.NewAccountService(stores, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(accountService, log)
	listingHandler := handlers.NewListingHandler(catalogService, log)
	orderHandler := handlers.NewOrderHandler(orderService, escrowService, log)
	disputeHandler := handlers.NewDisputeHandler(disputeService, orderService, cfg, log)
	adminHandler := handlers.NewAdminHandler(disputeService, escrowService, catalogService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, listingHandler, orderHandler, disputeHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
