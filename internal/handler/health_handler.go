package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scoped-query-api/internal/config"
	"github.com/noah-isme/scoped-query-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Records     int       `json:"records"`
	Resolver    string    `json:"resolver"`
}

// HealthCheck returns a handler that reports application health and the size of the loaded dataset.
func HealthCheck(cfg config.Config, records int) fiber.Handler {
	resolver := "keyword"
	if cfg.UsesLLM() {
		resolver = cfg.AIModel
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Records:     records,
			Resolver:    resolver,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
