package handlers

import (
	"strings"

	applog "medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders    *services.OrderService
	Inv       *services.InventoryService
	Catalog   *services.CatalogService
	Customers *services.CustomerService
	Flags     *services.FlagService
	Requests  *services.RequestService
	Notes     *services.NotificationService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	low, err := h.Inv.LowStock(ctx)
	if err != nil {
		applog.Error(c, "admin.dashboard.low_stock", err, nil)
	}
	counts, err := h.Requests.Counts(ctx)
	if err != nil {
		applog.Error(c, "admin.dashboard.requests", err, nil)
	}
	var unread int
	if u := currentUser(c); u != nil {
		unread, _ = h.Notes.Unread(ctx, u.ID)
	}
	ords, _ := h.Orders.Latest(ctx, 10)
	return render(c, "admin_dashboard", fiber.Map{
		"LowStock": low, "Counts": counts, "Unread": unread, "Orders": ords,
	})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.Latest(c.UserContext(), 100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if id == "" || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	if err := h.Orders.UpdateStatus(c.UserContext(), id, status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(400).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": strings.ToUpper(status)})
	return c.Redirect("/admin/orders")
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load inventory"})
	}
	ords, _ := h.Orders.Latest(c.UserContext(), 25)
	return render(c, "admin_inventory", fiber.Map{"Rows": rows, "Orders": ords})
}

// POST /admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid, okID := validate.ID(c.FormValue("product_id"))
	qty, okQty := validate.Count(c.FormValue("qty"))
	if !okID || !okQty {
		return c.Status(400).SendString("invalid input")
	}
	if err := h.Inv.SetStock(c.UserContext(), pid, qty); err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return c.Status(400).SendString("could not save inventory")
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": qty})
	return c.Redirect("/admin/inventory")
}

// UsersPage lists users (excluding admin).
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Customers.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

// DeleteUser deletes a user and related data, cancels their orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Customers.Delete(c.UserContext(), id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.Redirect("/admin/users")
}

// GET /admin/flags
func (h *AdminHandler) FlagsPage(c *fiber.Ctx) error {
	flags, err := h.Flags.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.flags.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load feature flags"})
	}
	return render(c, "admin_flags", fiber.Map{"Flags": flags})
}

// POST /admin/flags/:name
func (h *AdminHandler) ToggleFlag(c *fiber.Ctx) error {
	name, ok := validate.Flag(c.Params("name"))
	if !ok {
		return c.Status(400).SendString("invalid flag")
	}
	on := c.FormValue("enabled") == "true"
	if err := h.Flags.Set(c.UserContext(), name, on); err != nil {
		return pageError(c, "admin.flags.set", err)
	}
	applog.Audit(c, "admin.flags.set", map[string]any{"flag": name, "enabled": on})
	return c.Redirect("/admin/flags")
}

// GET /api/v1/flags
func (h *AdminHandler) APIFlags(c *fiber.Ctx) error {
	flags, err := h.Flags.List(c.UserContext())
	if err != nil {
		return jsonError(c, "api.flags.list", err)
	}
	out := make(map[string]bool, len(flags))
	for _, f := range flags {
		out[f.Name] = f.Enabled
	}
	return c.JSON(out)
}

// PUT /api/v1/owner/flags/:name
func (h *AdminHandler) APISetFlag(c *fiber.Ctx) error {
	var p struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&p); err != nil {
		return badBody(c)
	}
	name := c.Params("name")
	if err := h.Flags.Set(c.UserContext(), name, p.Enabled); err != nil {
		return jsonError(c, "api.flags.set", err)
	}
	applog.Audit(c, "admin.flags.set", map[string]any{"flag": name, "enabled": p.Enabled})
	return c.JSON(fiber.Map{"name": name, "enabled": p.Enabled})
}

// GET /admin/products
func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Rows": rows})
}

func (h *AdminHandler) productForm(c *fiber.Ctx, status int, data fiber.Map) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.categories", err, nil)
	}
	data["Categories"] = cats
	return render(c.Status(status), "admin_product_form", data)
}

// GET /admin/products/new
func (h *AdminHandler) NewProduct(c *fiber.Ctx) error {
	return h.productForm(c, fiber.StatusOK, fiber.Map{"Action": "/admin/products", "In": services.ProductInput{Active: true}})
}

// GET /admin/products/:id/edit
func (h *AdminHandler) EditProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return pageError(c, "admin.products.load", err)
	}
	in := services.ProductInput{
		CategoryID:           p.CategoryID,
		Name:                 p.Name,
		Description:          p.Description,
		Price:                p.Price,
		Discount:             p.DiscountPercent,
		Stock:                p.StockQuantity,
		RequiresPrescription: p.RequiresPrescription,
		Active:               p.Active,
	}
	return h.productForm(c, fiber.StatusOK, fiber.Map{"Action": "/admin/products/" + id, "In": in, "Editing": true})
}

// productInput reads the admin product form; bad numbers come back as a field error.
func productInput(c *fiber.Ctx) (services.ProductInput, string) {
	in := services.ProductInput{
		CategoryID:           strings.TrimSpace(c.FormValue("category_id")),
		Name:                 strings.TrimSpace(c.FormValue("name")),
		RequiresPrescription: c.FormValue("requires_prescription") != "",
		Active:               c.FormValue("active") != "",
	}
	var ok bool
	if in.Description, ok = validate.Text(c.FormValue("description"), 1000); !ok {
		return in, "Description is too long"
	}
	if in.Price, ok = validate.Price(c.FormValue("price")); !ok {
		return in, "Price must be a positive amount with at most two decimals"
	}
	if in.Discount, ok = validate.Percent(c.FormValue("discount")); !ok {
		return in, "Discount must be between 0 and 100"
	}
	if in.Stock, ok = validate.Count(c.FormValue("stock")); !ok {
		return in, "Quantity cannot be negative"
	}
	return in, ""
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	in, bad := productInput(c)
	if bad != "" {
		return h.productForm(c, fiber.StatusBadRequest, fiber.Map{"Action": "/admin/products", "Err": bad, "In": in})
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		code, msg := classify(err)
		logFailure(c, "admin.products.create", code, err)
		return h.productForm(c, code, fiber.Map{"Action": "/admin/products", "Err": msg, "In": in})
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product": p.ID, "name": p.Name})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	action := "/admin/products/" + id
	in, bad := productInput(c)
	if bad != "" {
		return h.productForm(c, fiber.StatusBadRequest, fiber.Map{"Action": action, "Err": bad, "In": in})
	}
	if err := h.Catalog.UpdateProduct(c.UserContext(), id, in); err != nil {
		code, msg := classify(err)
		logFailure(c, "admin.products.update", code, err)
		return h.productForm(c, code, fiber.Map{"Action": action, "Err": msg, "In": in})
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product": id, "qty": in.Stock})
	return c.Redirect("/admin/products")
}
