package handlers

import (
	"strings"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type WishlistHandler struct {
	Wish   *services.WishlistService
	Secure bool
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	items, err := h.Wish.List(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load wishlist"})
	}
	return render(c, "wishlist", fiber.Map{"Items": items})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	if err := h.Wish.Save(c.UserContext(), sid, pid); err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"product": pid})
		return c.Status(500).SendString("Could not save item")
	}
	// redirect back to the product page when we came from one
	back := "/wishlist"
	if ref := c.Get("Referer"); strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		back = ref
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	return c.Redirect(back)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	if err := h.Wish.Unsave(c.UserContext(), sid, pid); err != nil {
		applog.Error(c, "wishlist.unsave.fail", err, map[string]any{"product": pid})
		return c.Status(500).SendString("Could not unsave item")
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.Redirect("/wishlist")
}
