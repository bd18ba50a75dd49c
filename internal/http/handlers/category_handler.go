package handlers

import (
	"medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		log.Error(c, "home.categories.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	return render(c, "home", fiber.Map{"Categories": cats})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Category not found")
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), catID)
	if err != nil {
		return notFound(c, "Category not found")
	}
	pg := c.QueryInt("page", 1)
	products, err := h.Catalog.ListProductsByCategory(c.UserContext(), catID, pg, 12)
	if err != nil {
		log.Error(c, "category.list.fail", err, map[string]any{"category": catID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "category", fiber.Map{
		"Category": cat, "Products": products, "Page": pg, "Next": pg + 1, "HasNext": len(products) == 12,
	})
}
