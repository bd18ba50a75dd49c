package handlers

import (
	"strings"

	"medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		return render(c, "search", fiber.Map{"Q": "", "Products": []any{}, "Count": 0})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
			"Q": "", "Products": []any{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}
	q = strings.ToLower(q)
	category := strings.TrimSpace(c.Query("category"))
	if category != "" {
		if _, ok := validate.ID(category); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
				"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid category",
			})
		}
	}
	inStock := c.Query("instock") == "1"

	products, err := h.Catalog.Search(c.UserContext(), services.SearchQuery{
		Q: q, Category: category, InStockOnly: inStock, Page: 1, PageSize: 20,
	})
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}

	return render(c, "search", fiber.Map{
		"Q": q, "CategoryID": category, "InStock": inStock,
		"Products": products, "Count": len(products),
	})
}
