package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scoped-query-api/internal/config"
	"github.com/noah-isme/scoped-query-api/internal/handler"
	"github.com/noah-isme/scoped-query-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QueryHandler    *handler.QueryHandler
	AdminMiddleware fiber.Handler
	QueryLimiter    fiber.Handler
	Records         int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Records))

	if deps.QueryHandler == nil {
		return
	}

	adminMiddleware := deps.AdminMiddleware
	if adminMiddleware == nil {
		adminMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	deps.QueryHandler.RegisterDirectory(api)

	admin := api.Group("/admins/:adminID", adminMiddleware)
	if deps.QueryLimiter != nil {
		deps.QueryHandler.Register(admin, deps.QueryLimiter)
	} else {
		deps.QueryHandler.Register(admin)
	}
}
