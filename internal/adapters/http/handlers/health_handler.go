package handlers

import (
	"github.com/pavanbirlangi/library-management-system/internal/config"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check returns service and database health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "up"
	if err := config.HealthCheck(); err != nil {
		dbStatus = "down"
	}

	status := fiber.StatusOK
	if dbStatus == "down" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(response.Response{
		Success: dbStatus == "up",
		Message: "Health check",
		Data: fiber.Map{
			"service":  "library-management-system",
			"database": dbStatus,
		},
	})
}
