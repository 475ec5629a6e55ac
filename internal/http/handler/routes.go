package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes attaches the operational HTTP endpoints to the Fiber app.
// The document lifecycle itself is driven through the service layer; this
// surface only exposes health probes and metrics.
func RegisterRoutes(app *fiber.App, db *sql.DB, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", Metrics(gatherer))
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Metrics serves the Prometheus exposition endpoint.
func Metrics(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
