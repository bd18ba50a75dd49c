package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"
)

type SalesHandler struct {
	Sales *services.SalesService
	Inv   *services.InventoryService
}

// formValues reads a repeated form field from urlencoded or multipart bodies.
func formValues(c *fiber.Ctx, key string) []string {
	if form, err := c.MultipartForm(); err == nil {
		return form.Value[key]
	}
	var out []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}

// formLines zips the product_name / quantity / price columns of the sale form.
// Unparseable numbers become zero and fail line validation.
func formLines(c *fiber.Ctx) []services.LineInput {
	names := formValues(c, "product_name")
	qtys := formValues(c, "quantity")
	prices := formValues(c, "price")
	out := make([]services.LineInput, 0, len(names))
	for i, name := range names {
		var l services.LineInput
		l.Product = strings.TrimSpace(name)
		if i < len(qtys) {
			l.Quantity, _ = strconv.Atoi(strings.TrimSpace(qtys[i]))
		}
		if i < len(prices) {
			l.Price, _ = validate.Price(prices[i])
		}
		out = append(out, l)
	}
	return out
}

func (h *SalesHandler) page(c *fiber.Ctx, status int, data fiber.Map) error {
	ctx := c.UserContext()
	sales, err := h.Sales.Latest(ctx, 50)
	if err != nil {
		applog.Error(c, "sales.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load sales"})
	}
	names, err := h.Sales.ProductNames(ctx)
	if err != nil {
		applog.Error(c, "sales.names.fail", err, nil)
	}
	if data == nil {
		data = fiber.Map{}
	}
	data["Sales"] = sales
	data["Names"] = names
	return render(c.Status(status), "admin_sales", data)
}

// GET /admin/sales
func (h *SalesHandler) Page(c *fiber.Ctx) error {
	return h.page(c, fiber.StatusOK, fiber.Map{"Saved": c.Query("saved")})
}

// POST /admin/sales
func (h *SalesHandler) Submit(c *fiber.Ctx) error {
	lines := formLines(c)
	sale, err := h.Sales.Submit(c.UserContext(), lines)
	if err != nil {
		code, msg := classify(err)
		logFailure(c, "sales.submit", code, err)
		return h.page(c, code, fiber.Map{"Err": msg, "Lines": lines, "DraftTotal": lineTotal(lines)})
	}
	applog.Audit(c, "sales.submit", map[string]any{
		"sale_id": sale.ID, "lines": len(sale.Lines), "total": sale.TotalAmount.StringFixed(2),
	})
	return c.Redirect("/admin/sales?saved=1")
}

// GET /admin/sales/:id/edit
func (h *SalesHandler) EditForm(c *fiber.Ctx) error {
	sale, err := h.Sales.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return pageError(c, "sales.edit.load", err)
	}
	names, _ := h.Sales.ProductNames(c.UserContext())
	return render(c, "admin_sale_edit", fiber.Map{"Sale": sale, "Names": names})
}

// POST /admin/sales/:id
func (h *SalesHandler) Edit(c *fiber.Ctx) error {
	id := c.Params("id")
	confirm := c.FormValue("confirm") == "yes"
	sale, err := h.Sales.Edit(c.UserContext(), id, formLines(c), confirm)
	if err != nil {
		code, msg := classify(err)
		logFailure(c, "sales.edit", code, err)
		cur, gerr := h.Sales.Get(c.UserContext(), id)
		if gerr != nil {
			return pageError(c, "sales.edit", err)
		}
		names, _ := h.Sales.ProductNames(c.UserContext())
		return render(c.Status(code), "admin_sale_edit", fiber.Map{"Sale": cur, "Names": names, "Err": msg})
	}
	applog.Audit(c, "sales.edit", map[string]any{"sale_id": sale.ID, "total": sale.TotalAmount.StringFixed(2)})
	return c.Redirect("/admin/sales")
}

// POST /admin/sales/:id/delete
func (h *SalesHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Sales.Delete(c.UserContext(), id, c.FormValue("confirm") == "yes"); err != nil {
		code, msg := classify(err)
		logFailure(c, "sales.delete", code, err)
		return h.page(c, code, fiber.Map{"Err": msg})
	}
	applog.Audit(c, "sales.delete", map[string]any{"sale_id": id})
	return c.Redirect("/admin/sales")
}

type salePayload struct {
	Lines   []services.LineInput `json:"lines"`
	Confirm bool                 `json:"confirm"`
}

func parseSale(c *fiber.Ctx) (salePayload, bool) {
	var p salePayload
	if len(c.Body()) == 0 {
		return p, true
	}
	if err := c.BodyParser(&p); err != nil {
		return p, false
	}
	return p, true
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

// GET /api/v1/owner/sales?from=&to=
func (h *SalesHandler) APIList(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		sales, err := h.Sales.Latest(c.UserContext(), 100)
		if err != nil {
			return jsonError(c, "api.sales.list", err)
		}
		return c.JSON(fiber.Map{"sales": sales})
	}
	from, okFrom := validate.Date(from)
	to, okTo := validate.Date(to)
	if !okFrom || !okTo || to < from {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from and to must be dates with from <= to"})
	}
	sales, err := h.Sales.Between(c.UserContext(), from, to)
	if err != nil {
		return jsonError(c, "api.sales.list", err)
	}
	return c.JSON(fiber.Map{"sales": sales})
}

// POST /api/v1/owner/sales
func (h *SalesHandler) APISubmit(c *fiber.Ctx) error {
	p, ok := parseSale(c)
	if !ok {
		return badBody(c)
	}
	sale, err := h.Sales.Submit(c.UserContext(), p.Lines)
	if err != nil {
		return jsonError(c, "api.sales.submit", err)
	}
	applog.Audit(c, "sales.submit", map[string]any{
		"sale_id": sale.ID, "lines": len(sale.Lines), "total": sale.TotalAmount.StringFixed(2),
	})
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// POST /api/v1/owner/sales/check
func (h *SalesHandler) APICheck(c *fiber.Ctx) error {
	p, ok := parseSale(c)
	if !ok {
		return badBody(c)
	}
	checks, err := h.Inv.CheckAll(c.UserContext(), p.Lines)
	if err != nil {
		return jsonError(c, "api.sales.check", err)
	}
	all := true
	for _, ch := range checks {
		all = all && ch.OK
	}
	return c.JSON(fiber.Map{"ok": all, "lines": checks})
}

// GET /api/v1/owner/sales/:id
func (h *SalesHandler) APIGet(c *fiber.Ctx) error {
	sale, err := h.Sales.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return jsonError(c, "api.sales.get", err)
	}
	return c.JSON(sale)
}

// PUT /api/v1/owner/sales/:id
func (h *SalesHandler) APIEdit(c *fiber.Ctx) error {
	p, ok := parseSale(c)
	if !ok {
		return badBody(c)
	}
	sale, err := h.Sales.Edit(c.UserContext(), c.Params("id"), p.Lines, p.Confirm)
	if err != nil {
		return jsonError(c, "api.sales.edit", err)
	}
	applog.Audit(c, "sales.edit", map[string]any{"sale_id": sale.ID, "total": sale.TotalAmount.StringFixed(2)})
	return c.JSON(sale)
}

// DELETE /api/v1/owner/sales/:id, confirmed by body or ?confirm=true
func (h *SalesHandler) APIDelete(c *fiber.Ctx) error {
	p, ok := parseSale(c)
	if !ok {
		return badBody(c)
	}
	id := c.Params("id")
	confirm := p.Confirm || c.QueryBool("confirm", false)
	if err := h.Sales.Delete(c.UserContext(), id, confirm); err != nil {
		return jsonError(c, "api.sales.delete", err)
	}
	applog.Audit(c, "sales.delete", map[string]any{"sale_id": id})
	return c.JSON(fiber.Map{"deleted": id})
}

// lineTotal is the unsaved total shown when a draft is sent back.
func lineTotal(lines []services.LineInput) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
