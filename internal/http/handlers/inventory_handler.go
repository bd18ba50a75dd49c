package handlers

import (
	"github.com/gofiber/fiber/v2"

	"medicart/internal/services"
	"medicart/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return jsonError(c, "inventory.check", err)
	}
	return c.JSON(avail)
}
