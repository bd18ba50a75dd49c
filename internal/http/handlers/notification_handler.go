package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "medicart/internal/log"
	"medicart/internal/services"
)

type NotificationHandler struct {
	Notes *services.NotificationService
}

// GET /notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	inbox, err := h.Notes.Inbox(c.UserContext(), u.ID)
	if err != nil {
		applog.Error(c, "notifications.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load notifications"})
	}
	return render(c, "notifications", fiber.Map{"Inbox": inbox})
}

// POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notes.MarkRead(c.UserContext(), u.ID, c.Params("id")); err != nil {
		return pageError(c, "notifications.read", err)
	}
	return c.Redirect("/notifications")
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	u := currentUser(c)
	n, err := h.Notes.MarkAllRead(c.UserContext(), u.ID)
	if err != nil {
		return pageError(c, "notifications.read_all", err)
	}
	applog.Info(c, "notifications.read_all", map[string]any{"count": n})
	return c.Redirect("/notifications")
}

// GET /api/v1/owner/notifications
func (h *NotificationHandler) APIList(c *fiber.Ctx) error {
	inbox, err := h.Notes.Inbox(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return jsonError(c, "api.notifications.list", err)
	}
	return c.JSON(inbox)
}

// POST /api/v1/owner/notifications/:id/read
func (h *NotificationHandler) APIMarkRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Notes.MarkRead(c.UserContext(), currentUser(c).ID, id); err != nil {
		return jsonError(c, "api.notifications.read", err)
	}
	return c.JSON(fiber.Map{"read": id})
}
