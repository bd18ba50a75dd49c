package handlers

import (
	"medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil || !p.Active {
		return notFound(c, "This item is no longer available")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), p.ID)
	if err != nil {
		log.Warn(c, "product.availability", err, map[string]any{"product": p.ID})
	}
	return render(c, "product", fiber.Map{"P": p, "Avail": avail, "SalePrice": p.SalePrice()})
}
