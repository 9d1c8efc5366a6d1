package handler

import (
	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/service"
	"benefits-web/internal/utils"
)

type SeedHandler struct {
	seedService *service.SeedService
}

func NewSeedHandler(seedService *service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// SeedDemo loads the demo dataset; existing records are left untouched
func (h *SeedHandler) SeedDemo(c *fiber.Ctx) error {
	if err := h.seedService.SeedDemo(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to seed demo data", err)
	}
	return utils.SuccessResponse(c, "Demo data seeded", nil)
}

// CleanupDemo removes the demo dataset
func (h *SeedHandler) CleanupDemo(c *fiber.Ctx) error {
	if err := h.seedService.CleanupDemo(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove demo data", err)
	}
	return utils.SuccessResponse(c, "Demo data removed", nil)
}
