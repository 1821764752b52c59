package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "mechlink",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

// ReadyHandler checks database, NATS and cache connectivity. The database
// is required; NATS and the cache are optional but must be healthy when
// configured.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true

		check := func(name string, p Pinger, required bool) {
			if p == nil {
				checks[name] = "not configured"
				if required {
					ready = false
				}
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}
		check("database", deps.DB, true)
		check("cache", deps.Cache, false)

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
			ready = false
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
