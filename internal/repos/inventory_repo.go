package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// InventoryRepo owns stock_quantity/in_stock on products.
type InventoryRepo struct{ base }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{base{db}} }

// Row used by admin inventory pages
type InventoryRow struct {
	ProductID  string `db:"product_id"`
	Name       string `db:"name"`
	CategoryID string `db:"category_id"`
	Qty        int    `db:"qty"`
	InStock    bool   `db:"in_stock"`
	Active     bool   `db:"active"`
}

// ListAll returns every product's stock, inactive ones included.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.sel(ctx, &rows, `
		SELECT id AS product_id, name, category_id, stock_quantity AS qty, in_stock, active
		FROM products
		ORDER BY name, id
	`)
	return rows, err
}

// LowStock lists active products at or below threshold.
func (r *InventoryRepo) LowStock(ctx context.Context, threshold int) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.sel(ctx, &rows, `
		SELECT id AS product_id, name, category_id, stock_quantity AS qty, in_stock, active
		FROM products
		WHERE active = TRUE AND stock_quantity <= ?
		ORDER BY stock_quantity, name
	`, threshold)
	return rows, err
}

// Qty returns current stock for a product.
// If no row exists, it returns sql.ErrNoRows.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	if err := r.get(ctx, &qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID); err != nil {
		return 0, err
	}
	return qty, nil
}

// CompareAndSet writes qty only if the row still holds expected; otherwise ErrStaleWrite.
func (r *InventoryRepo) CompareAndSet(ctx context.Context, productID string, expected, qty int, at string) error {
	res, err := r.exec(ctx, `
		UPDATE products
		SET stock_quantity = ?, in_stock = ?, updated_at = ?
		WHERE id = ? AND stock_quantity = ?
	`, qty, qty > 0, at, productID, expected)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

// SetQty is the admin override; sql.ErrNoRows for an unknown product.
func (r *InventoryRepo) SetQty(ctx context.Context, productID string, qty int, at string) error {
	return r.execOne(ctx, `
		UPDATE products SET stock_quantity = ?, in_stock = ?, updated_at = ? WHERE id = ?
	`, qty, qty > 0, at, productID)
}
