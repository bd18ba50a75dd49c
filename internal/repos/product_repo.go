package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type ProductRepo struct{ base }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{base{db}} }

const productCols = `
    id, category_id, name, description, price, discount_percent, stock_quantity,
    in_stock, requires_prescription, active, created_at, updated_at`

func (r *ProductRepo) ListByCategory(ctx context.Context, catID string, limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.sel(ctx, &out, `
  SELECT `+productCols+`
  FROM products
  WHERE category_id = ? AND active = TRUE
  ORDER BY name, id
  LIMIT ? OFFSET ?
`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.get(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// FirstByName resolves a sale line to a product. Names are not unique; the
// oldest row wins so repeated lookups are stable.
func (r *ProductRepo) FirstByName(ctx context.Context, name string) (domain.Product, error) {
	var p domain.Product
	err := r.get(ctx, &p, `
  SELECT `+productCols+`
  FROM products
  WHERE name = ?
  ORDER BY created_at, id
  LIMIT 1
`, name)
	return p, err
}

func (r *ProductRepo) Search(ctx context.Context, q, catID string, inStockOnly bool, limit, offset int) ([]domain.Product, error) {
	where := `active = TRUE`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	if inStockOnly {
		where += ` AND in_stock = TRUE`
	}

	query := `
  SELECT ` + productCols + `
  FROM products
  WHERE ` + where + `
  ORDER BY name, id
  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := r.sel(ctx, &out, query, args...)
	return out, err
}

// Names lists active product names for the sales entry form.
func (r *ProductRepo) Names(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.sel(ctx, &out, `SELECT DISTINCT name FROM products WHERE active = TRUE ORDER BY name`)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	_, err := r.exec(ctx, `
  INSERT INTO products(id, category_id, name, description, price, discount_percent, stock_quantity,
                       in_stock, requires_prescription, active, created_at, updated_at)
  VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
`, p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.DiscountPercent, p.StockQuantity,
		p.StockQuantity > 0, p.RequiresPrescription, p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites the editable catalog fields. Stock goes through InventoryRepo.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	return r.execOne(ctx, `
  UPDATE products
  SET category_id = ?, name = ?, description = ?, price = ?, discount_percent = ?,
      requires_prescription = ?, active = ?, updated_at = ?
  WHERE id = ?
`, p.CategoryID, p.Name, p.Description, p.Price, p.DiscountPercent,
		p.RequiresPrescription, p.Active, p.UpdatedAt, p.ID)
}
