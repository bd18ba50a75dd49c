package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"medicart/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// Add puts qty of productID in the session cart at the current sale price.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Active) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(ctx, cartID, productID, qty, p.SalePrice())
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) error {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Remove(ctx, cartID, productID)
}

type CartView struct {
	Items []repos.CartItemRow
	Total decimal.Decimal
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, total, err := s.Carts.View(ctx, cartID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: total}, nil
}
