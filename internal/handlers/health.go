package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/config"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/store"
)

// HealthHandler handles the health probe route
type HealthHandler struct {
	Cfg   *config.Config
	Store store.Store
}

// Check handles GET /api/health
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.Store)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
