package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LoadFailureCounter reports how many cart reads fell back to an empty cart.
type LoadFailureCounter interface {
	LoadFailures() int64
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	pool  Pinger
	carts LoadFailureCounter
}

// NewHealthHandler creates a new HealthHandler. carts may be nil.
func NewHealthHandler(pool Pinger, carts LoadFailureCounter) *HealthHandler {
	return &HealthHandler{pool: pool, carts: carts}
}

// Check pings the database.
// Returns 200 OK with {"status": "healthy"} when database is reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} when database is unreachable.
// Both bodies carry cart_load_failures, the number of degraded cart reads since startup.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	var failures int64
	if h.carts != nil {
		failures = h.carts.LoadFailures()
	}

	if err := h.pool.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":             "unhealthy",
			"error":              "database connection failed",
			"cart_load_failures": failures,
		})
	}
	return c.JSON(fiber.Map{
		"status":             "healthy",
		"cart_load_failures": failures,
	})
}
