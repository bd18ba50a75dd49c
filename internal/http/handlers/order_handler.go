package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "medicart/internal/log"
	"medicart/internal/services"
)

type OrderHandler struct {
	Cart   *services.CartService
	Order  *services.OrderService
	Auth   *services.AuthService
	Secure bool
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c, h.Secure))
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "checkout", fiber.Map{"Cart": cv})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	contact := services.Contact{
		Name:          c.FormValue("name"),
		Email:         c.FormValue("email"),
		Phone:         c.FormValue("phone"),
		Address:       c.FormValue("address"),
		PaymentMethod: c.FormValue("payment_method"),
	}

	orderID, err := h.Order.Place(c.UserContext(), sid, contact)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			applog.Security(c, "validation.fail", map[string]any{"field": ve.Field})
			return c.Status(fiber.StatusBadRequest).SendString(ve.Msg)
		}
		code, msg := classify(err)
		applog.Security(c, "order.place.fail", map[string]any{"sid": sid, "error": err.Error()})
		if code >= fiber.StatusInternalServerError {
			msg = "Could not place order. Please review quantities and try again."
		}
		cv, _ := h.Cart.View(c.UserContext(), sid)
		return c.Status(code).Render("checkout", fiber.Map{"Cart": cv, "Err": msg, "CSRFToken": c.Cookies("csrf_")})
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": orderID})

	// Show detailed confirmation page
	return c.Redirect("/order/" + orderID)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid := c.Params("id")
	if oid == "" {
		return notFound(c, "Order not found")
	}

	o, items, err := h.Order.Get(c.UserContext(), oid)
	if err != nil {
		return notFound(c, "Order not found")
	}

	// Ownership check: session owner or same user via sessions.user_id; admins allowed
	sid := c.Cookies("sid")
	var uID string
	var admin bool
	if h.Auth != nil && sid != "" {
		if u, err := h.Auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
			uID = u.ID
			admin = u.IsAdmin()
		}
	}
	owner := (sid != "" && sid == o.SessionID) || (uID != "" && uID == o.UserID)
	if !owner && !admin {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return notFound(c, "Order not found")
	}

	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return notFound(c, "Orders not available")
	}
	orders, err := h.Order.History(c.UserContext(), u.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	// Fallback: show session orders if none linked to user (e.g., pre-login)
	if len(orders) == 0 {
		if sid := c.Cookies("sid"); sid != "" {
			if sessOrders, err := h.Order.ForSession(c.UserContext(), sid); err == nil && len(sessOrders) > 0 {
				orders = sessOrders
			}
		}
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
