package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ base }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{base{db}} }

type CartItemRow struct {
	ProductID  string          `db:"product_id"`
	Name       string          `db:"name"`
	Qty        int             `db:"qty"`
	PriceAtAdd decimal.Decimal `db:"price_at_add"`
	Subtotal   decimal.Decimal `db:"-"`
}

func (r *CartRepo) EnsureCart(ctx context.Context, sessionID string) (string, error) {
	var cartID string
	err := r.get(ctx, &cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = r.exec(ctx, `INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty int, price decimal.Decimal) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	_, err := r.exec(ctx, `
		INSERT INTO cart_items(cart_id,product_id,qty,price_at_add,created_at,updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, price_at_add = excluded.price_at_add, updated_at = excluded.updated_at
	`, cartID, productID, qty, price, ts, ts)
	return err
}

// View returns the lines with subtotals and the cart total.
func (r *CartRepo) View(ctx context.Context, cartID string) ([]CartItemRow, decimal.Decimal, error) {
	rows := []CartItemRow{}
	if err := r.sel(ctx, &rows, `
	  SELECT ci.product_id, p.name, ci.qty, ci.price_at_add
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY p.name
	`, cartID); err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for i := range rows {
		rows[i].Subtotal = rows[i].PriceAtAdd.Mul(decimal.NewFromInt(int64(rows[i].Qty)))
		total = total.Add(rows[i].Subtotal)
	}
	return rows, total, nil
}

type CartItem struct {
	ProductID string `db:"product_id"`
	Qty       int    `db:"qty"`
	Name      string `db:"name"`
}

// Items lists what is in the cart without prices; checkout reprices from products.
func (r *CartRepo) Items(ctx context.Context, cartID string) ([]CartItem, error) {
	out := []CartItem{}
	err := r.sel(ctx, &out, `
	  SELECT ci.product_id, ci.qty, p.name
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY p.name
	`, cartID)
	return out, err
}

func (r *CartRepo) Remove(ctx context.Context, cartID, productID string) error {
	_, err := r.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
