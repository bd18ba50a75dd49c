package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"
)

type ReportHandler struct {
	Reports *services.ReportService
}

// GET /admin/reports
func (h *ReportHandler) Page(c *fiber.Ctx) error {
	reports, err := h.Reports.List(c.UserContext())
	if err != nil {
		applog.Error(c, "reports.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load reports"})
	}
	return render(c, "admin_reports", fiber.Map{"Reports": reports})
}

// POST /admin/reports
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	month, ok := validate.Month(c.FormValue("month"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "month"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Month must look like YYYY-MM"})
	}
	m, err := h.Reports.GenerateMonthly(c.UserContext(), month, services.GenerateOptions{})
	if err != nil {
		return pageError(c, "reports.generate", err)
	}
	applog.Audit(c, "reports.generate", map[string]any{"month": m.Month, "total": m.TotalSales.StringFixed(2)})
	return c.Redirect("/admin/reports/" + m.Month)
}

// GET /admin/reports/:month
func (h *ReportHandler) Detail(c *fiber.Ctx) error {
	m, err := h.Reports.Get(c.UserContext(), c.Params("month"))
	if err != nil {
		return pageError(c, "reports.detail", err)
	}
	return render(c, "admin_report", fiber.Map{"Report": m})
}

// POST /admin/reports/delete with one or more month fields
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	months := formValues(c, "month")
	if err := h.Reports.Delete(c.UserContext(), months...); err != nil {
		return pageError(c, "reports.delete", err)
	}
	applog.Audit(c, "reports.delete", map[string]any{"months": months})
	return c.Redirect("/admin/reports")
}

func sendCSV(c *fiber.Ctx, name string, s services.Summary) error {
	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, s); err != nil {
		applog.Error(c, "reports.export.fail", err, map[string]any{"file": name})
		return c.Status(500).SendString(genericError)
	}
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	applog.Audit(c, "reports.export", map[string]any{"file": name})
	return c.Send(buf.Bytes())
}

// GET /admin/reports/:month/export
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	m, err := h.Reports.Get(c.UserContext(), c.Params("month"))
	if err != nil {
		return pageError(c, "reports.export", err)
	}
	return sendCSV(c, services.MonthlyCSVName(m.Month), services.MonthlySummary(m))
}

// GET /admin/reports/daily/export?date=
func (h *ReportHandler) DailyExport(c *fiber.Ctx) error {
	date := c.Query("date")
	s, err := h.Reports.DailySummary(c.UserContext(), date)
	if err != nil {
		return pageError(c, "reports.daily", err)
	}
	return sendCSV(c, services.DailyCSVName(date), s)
}

// GET /api/v1/owner/reports
func (h *ReportHandler) APIList(c *fiber.Ctx) error {
	reports, err := h.Reports.List(c.UserContext())
	if err != nil {
		return jsonError(c, "api.reports.list", err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// GET /api/v1/owner/reports/:month
func (h *ReportHandler) APIGet(c *fiber.Ctx) error {
	m, err := h.Reports.Get(c.UserContext(), c.Params("month"))
	if err != nil {
		return jsonError(c, "api.reports.get", err)
	}
	return c.JSON(m)
}

// POST /api/v1/owner/reports/:month/generate
func (h *ReportHandler) APIGenerate(c *fiber.Ctx) error {
	m, err := h.Reports.GenerateMonthly(c.UserContext(), c.Params("month"), services.GenerateOptions{})
	if err != nil {
		return jsonError(c, "api.reports.generate", err)
	}
	applog.Audit(c, "reports.generate", map[string]any{"month": m.Month, "total": m.TotalSales.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(m)
}

// DELETE /api/v1/owner/reports/:month
func (h *ReportHandler) APIDelete(c *fiber.Ctx) error {
	month := c.Params("month")
	if err := h.Reports.Delete(c.UserContext(), month); err != nil {
		return jsonError(c, "api.reports.delete", err)
	}
	applog.Audit(c, "reports.delete", map[string]any{"months": []string{month}})
	return c.JSON(fiber.Map{"deleted": month})
}

// GET /api/v1/owner/reports/daily?date=
func (h *ReportHandler) APIDaily(c *fiber.Ctx) error {
	s, err := h.Reports.DailySummary(c.UserContext(), c.Query("date"))
	if err != nil {
		return jsonError(c, "api.reports.daily", err)
	}
	return c.JSON(fiber.Map{
		"date": s.Label, "total_sales": s.Total, "most_sold_product": s.MostSold, "products_sold": s.Products,
	})
}
