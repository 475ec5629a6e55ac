package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"docrepo/internal/app"
	"docrepo/internal/config"
	handlers "docrepo/internal/http/handler"
	"docrepo/internal/http/middleware"
	"docrepo/internal/otel"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC
	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	application, err := app.New(ctx, cfg, loc)
	if err != nil {
		log.Fatalf("failed to start application: %v", err)
	}
	defer application.Close()

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	registry := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	fiberApp.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	fiberApp.Use(middleware.Logger())
	fiberApp.Use(otelfiber.Middleware())
	fiberApp.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(fiberApp, application.DB, registry)

	addr := ":" + cfg.Port

	if err := fiberApp.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
