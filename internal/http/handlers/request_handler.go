package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"
)

type RequestHandler struct {
	Requests *services.RequestService
}

// GET /requests/new?medicine=
func (h *RequestHandler) Form(c *fiber.Ctx) error {
	medicine, _ := validate.Name(c.Query("medicine"))
	return render(c, "request_form", fiber.Map{"Medicine": medicine})
}

// POST /requests
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in services.RequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).Render("request_form", fiber.Map{"Err": "Please fill in the form", "CSRFToken": c.Cookies("csrf_")})
	}
	m, err := h.Requests.Create(c.UserContext(), in)
	if err != nil {
		code, msg := classify(err)
		logFailure(c, "requests.create", code, err)
		return render(c.Status(code), "request_form", fiber.Map{"Err": msg, "In": in, "Medicine": in.MedicineName})
	}
	applog.Audit(c, "requests.create", map[string]any{"request_id": m.ID, "medicine": m.MedicineName})
	return render(c, "request_form", fiber.Map{"Done": true, "Request": m})
}

// POST /api/v1/requests
func (h *RequestHandler) APICreate(c *fiber.Ctx) error {
	var in services.RequestInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.Requests.Create(c.UserContext(), in)
	if err != nil {
		return jsonError(c, "api.requests.create", err)
	}
	applog.Audit(c, "requests.create", map[string]any{"request_id": m.ID, "medicine": m.MedicineName})
	return c.Status(fiber.StatusCreated).JSON(m)
}

// GET /admin/requests?status=
func (h *RequestHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	status := c.Query("status")
	list, err := h.Requests.List(ctx, status)
	if err != nil {
		return pageError(c, "requests.list", err)
	}
	counts, err := h.Requests.Counts(ctx)
	if err != nil {
		applog.Error(c, "requests.counts.fail", err, nil)
	}
	missing, err := h.Requests.Unavailable(ctx)
	if err != nil {
		applog.Error(c, "requests.unavailable.fail", err, nil)
	}
	return render(c, "admin_requests", fiber.Map{
		"Requests": list, "Status": status, "Counts": counts, "Unavailable": missing,
	})
}

// GET /admin/requests/:id
func (h *RequestHandler) Detail(c *fiber.Ctx) error {
	m, err := h.Requests.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return pageError(c, "requests.detail", err)
	}
	return render(c, "admin_request", fiber.Map{"Request": m, "Saved": c.Query("saved")})
}

// POST /admin/requests/:id/status
func (h *RequestHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if err := h.Requests.UpdateStatus(c.UserContext(), id, status, c.FormValue("notes")); err != nil {
		return pageError(c, "requests.status", err)
	}
	applog.Audit(c, "requests.status", map[string]any{"request_id": id, "status": status})
	return c.Redirect("/admin/requests/" + id + "?saved=status")
}

// POST /admin/requests/:id/reminder
func (h *RequestHandler) Reminder(c *fiber.Ctx) error {
	id := c.Params("id")
	u := currentUser(c)
	if u == nil {
		return c.Redirect("/login")
	}
	n, err := h.Requests.SetReminder(c.UserContext(), u.ID, id, c.FormValue("reminder_date"))
	if err != nil {
		return pageError(c, "requests.reminder", err)
	}
	applog.Audit(c, "requests.reminder", map[string]any{"request_id": id, "date": n.ReminderDate})
	return c.Redirect("/admin/requests/" + id + "?saved=reminder")
}

// POST /admin/unavailable/status
func (h *RequestHandler) UnavailableStatus(c *fiber.Ctx) error {
	name := c.FormValue("medicine_name")
	status := c.FormValue("status")
	if err := h.Requests.SetUnavailableStatus(c.UserContext(), name, status); err != nil {
		return pageError(c, "requests.unavailable", err)
	}
	applog.Audit(c, "requests.unavailable", map[string]any{"medicine": name, "status": status})
	return c.Redirect("/admin/requests")
}

// GET /api/v1/owner/requests?status=
func (h *RequestHandler) APIList(c *fiber.Ctx) error {
	list, err := h.Requests.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return jsonError(c, "api.requests.list", err)
	}
	return c.JSON(fiber.Map{"requests": list})
}

type statusPayload struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// PUT /api/v1/owner/requests/:id/status
func (h *RequestHandler) APIUpdateStatus(c *fiber.Ctx) error {
	var p statusPayload
	if err := c.BodyParser(&p); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	if err := h.Requests.UpdateStatus(c.UserContext(), id, p.Status, p.Notes); err != nil {
		return jsonError(c, "api.requests.status", err)
	}
	applog.Audit(c, "requests.status", map[string]any{"request_id": id, "status": p.Status})
	m, err := h.Requests.Get(c.UserContext(), id)
	if err != nil {
		return jsonError(c, "api.requests.status", err)
	}
	return c.JSON(m)
}
