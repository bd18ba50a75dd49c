package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrStaleWrite means a guarded UPDATE matched no row because another writer
// changed it first.
var ErrStaleWrite = errors.New("row changed by another writer")

// Repos bundles every repository over one executor, either the pool or a tx.
type Repos struct {
	Products      *ProductRepo
	Inventory     *InventoryRepo
	Categories    *CategoryRepo
	Sales         *SaleRepo
	Reports       *ReportRepo
	Requests      *RequestRepo
	Notifications *NotificationRepo
	Unavailable   *UnavailableRepo
	Flags         *FlagRepo
	Users         *UserRepo
	Carts         *CartRepo
	Wishlists     *WishlistRepo
	Orders        *OrderRepo
}

func NewRepos(db sqlx.ExtContext) *Repos {
	return &Repos{
		Products:      NewProductRepo(db),
		Inventory:     NewInventoryRepo(db),
		Categories:    NewCategoryRepo(db),
		Sales:         NewSaleRepo(db),
		Reports:       NewReportRepo(db),
		Requests:      NewRequestRepo(db),
		Notifications: NewNotificationRepo(db),
		Unavailable:   NewUnavailableRepo(db),
		Flags:         NewFlagRepo(db),
		Users:         NewUserRepo(db),
		Carts:         NewCartRepo(db),
		Wishlists:     NewWishlistRepo(db),
		Orders:        NewOrderRepo(db),
	}
}

// Store is the pool-backed Repos plus transactions.
type Store struct {
	DB *sqlx.DB
	*Repos
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db, Repos: NewRepos(db)}
}

// InTx runs fn against tx-bound repos. Any error, or a panic, rolls everything back.
// fn must not use the pool-backed repos: with sqlite's single connection that deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// base rebinds '?' placeholders for the active driver.
type base struct{ db sqlx.ExtContext }

func (b base) get(ctx context.Context, dest any, q string, args ...any) error {
	return sqlx.GetContext(ctx, b.db, dest, b.db.Rebind(q), args...)
}

func (b base) sel(ctx context.Context, dest any, q string, args ...any) error {
	return sqlx.SelectContext(ctx, b.db, dest, b.db.Rebind(q), args...)
}

func (b base) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return b.db.ExecContext(ctx, b.db.Rebind(q), args...)
}

// execOne fails with sql.ErrNoRows when nothing matched.
func (b base) execOne(ctx context.Context, q string, args ...any) error {
	res, err := b.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// in expands a slice argument into (?, ?, ...).
func (b base) in(ctx context.Context, q string, args ...any) (sql.Result, error) {
	query, expanded, err := sqlx.In(q, args...)
	if err != nil {
		return nil, err
	}
	return b.exec(ctx, query, expanded...)
}
