package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/storefront-cart/internal/config"
	"github.com/fairyhunter13/storefront-cart/internal/handler"
	"github.com/fairyhunter13/storefront-cart/internal/repository"
	"github.com/fairyhunter13/storefront-cart/internal/service"
	"github.com/fairyhunter13/storefront-cart/internal/validator"
	"github.com/fairyhunter13/storefront-cart/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Cart",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()

	// Repositories
	cartRepo := repository.NewCartRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)

	// Services
	cartService := service.NewCartService(cartRepo)
	couponService := service.NewCouponService(pool, couponRepo, usageRepo)
	checkoutService := service.NewCheckoutService(cartService, couponService, cfg.Store.Currency)

	// Handlers
	cartHandler := handler.NewCartHandler(cartService, checkoutService, validate)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	healthHandler := handler.NewHealthHandler(pool, cartService)

	app.Get("/health", healthHandler.Check)

	app.Get("/api/carts/:user_id", cartHandler.GetCart)
	app.Delete("/api/carts/:user_id", cartHandler.ClearCart)
	app.Get("/api/carts/:user_id/quote", cartHandler.Quote)
	app.Post("/api/carts/:user_id/items", cartHandler.AddItem)
	app.Patch("/api/carts/:user_id/items", cartHandler.UpdateQuantity)
	app.Delete("/api/carts/:user_id/items", cartHandler.RemoveItem)

	app.Post("/api/coupons", couponHandler.CreateCoupon)
	app.Post("/api/coupons/validate", couponHandler.ValidateCoupon)
	app.Post("/api/coupons/redeem", couponHandler.RedeemCoupon)
	app.Get("/api/coupons/:code", couponHandler.GetCoupon)

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("currency", cfg.Store.Currency).
			Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Waits for in-flight requests
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	pool.Close()
	log.Info().
		Int64("cart_load_failures", cartService.LoadFailures()).
		Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
