package handlers

import (
	"errors"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart   *services.CartService
	Secure bool
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	if err := h.Cart.Add(c.UserContext(), sid, productID, qty); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return notFound(c, "This item is no longer available")
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": productID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	if err := h.Cart.Remove(c.UserContext(), sid, productID); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"product": productID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}
