package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WishlistRepo struct{ base }

func NewWishlistRepo(db sqlx.ExtContext) *WishlistRepo { return &WishlistRepo{base{db}} }

func (r *WishlistRepo) Ensure(ctx context.Context, sessionID string) (string, error) {
	var id string
	err := r.get(ctx, &id, `SELECT id FROM wishlists WHERE session_id=?`, sessionID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = r.exec(ctx, `INSERT INTO wishlists(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *WishlistRepo) Add(ctx context.Context, wishlistID, productID string) error {
	_, err := r.exec(ctx, `
	  INSERT INTO wishlist_items(wishlist_id, product_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(wishlist_id, product_id) DO NOTHING
	`, wishlistID, productID, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, wishlistID, productID string) error {
	_, err := r.exec(ctx, `DELETE FROM wishlist_items WHERE wishlist_id=? AND product_id=?`, wishlistID, productID)
	return err
}

type WishlistRow struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	InStock   bool            `db:"in_stock"`
	Active    bool            `db:"active"`
}

func (r *WishlistRepo) List(ctx context.Context, wishlistID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.sel(ctx, &out, `
	  SELECT p.id AS product_id, p.name, p.price, p.in_stock, p.active
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.wishlist_id = ?
	  ORDER BY p.name
	`, wishlistID)
	return out, err
}
