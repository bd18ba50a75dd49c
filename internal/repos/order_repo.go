package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ base }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{base{db}} }

// Order statuses.
const (
	OrderPlaced    = "PLACED"
	OrderConfirmed = "CONFIRMED"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCanceled  = "CANCELED"
)

// ---------- Admin list summary ----------
type OrderSummary struct {
	ID            string          `db:"id"`
	SessionID     string          `db:"session_id"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	Total         decimal.Decimal `db:"total"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

// ---------- Order detail (used by /order/:id) ----------
type OrderRow struct {
	ID            string          `db:"id"`
	SessionID     string          `db:"session_id"`
	UserID        string          `db:"user_id"`
	Customer      string          `db:"customer_name"`
	Email         string          `db:"customer_email"`
	Phone         string          `db:"phone"`
	Address       string          `db:"address"`
	PaymentMethod string          `db:"payment_method"`
	Total         decimal.Decimal `db:"total"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

type OrderItemRow struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"product_name"`
	Qty       int             `db:"qty"`
	Price     decimal.Decimal `db:"price"`
	Subtotal  decimal.Decimal `db:"-"`
}

// Create inserts a new order header with status PLACED.
func (r *OrderRepo) Create(ctx context.Context, o OrderRow) error {
	_, err := r.exec(ctx, `
	  INSERT INTO orders
	    (id, session_id, customer_name, customer_email, phone, address, payment_method, total, status, created_at)
	  VALUES
	    (?,  ?,          ?,             ?,              ?,     ?,       ?,              ?,     'PLACED', ?)
	`, o.ID, o.SessionID, o.Customer, o.Email, o.Phone, o.Address, o.PaymentMethod, o.Total, o.CreatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(ctx context.Context, orderID string, it OrderItemRow) error {
	_, err := r.exec(ctx, `
	  INSERT INTO order_items(order_id, product_id, product_name, qty, price)
	  VALUES(?, ?, ?, ?, ?)
	`, orderID, it.ProductID, it.Name, it.Qty, it.Price)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.get(ctx, &o, `
		SELECT o.id, o.session_id, COALESCE(s.user_id,'') AS user_id, o.customer_name, o.customer_email,
		       o.phone, o.address, o.payment_method, o.total, o.status, o.created_at
		FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.id = ?
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	items := []OrderItemRow{}
	if err := r.sel(ctx, &items, `
		SELECT product_id, product_name, qty, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}
	for i := range items {
		items[i].Subtotal = items[i].Price.Mul(decimal.NewFromInt(int64(items[i].Qty)))
	}
	return o, items, nil
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []OrderSummary{}
	err := r.sel(ctx, &out, `
		SELECT id, session_id, customer_name, customer_email, total, status, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	return out, err
}

// ListByUser returns orders for a given user via session linkage.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]OrderSummary, error) {
	out := []OrderSummary{}
	err := r.sel(ctx, &out, `
		SELECT o.id, o.session_id, o.customer_name, o.customer_email, o.total, o.status, o.created_at
		FROM orders o
		JOIN sessions s ON s.id = o.session_id
		WHERE s.user_id = ?
		ORDER BY o.created_at DESC
	`, userID)
	return out, err
}

// ListBySession returns orders tied to a given session id (helps show anon or pre-login orders).
func (r *OrderRepo) ListBySession(ctx context.Context, sessionID string) ([]OrderSummary, error) {
	out := []OrderSummary{}
	err := r.sel(ctx, &out, `
		SELECT id, session_id, customer_name, customer_email, total, status, created_at
		FROM orders
		WHERE session_id = ?
		ORDER BY created_at DESC
	`, sessionID)
	return out, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.execOne(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPlaced, OrderConfirmed, OrderShipped, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}
