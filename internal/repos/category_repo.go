package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type CategoryRepo struct{ base }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{base{db}} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.sel(ctx, &out, `
  SELECT id, name, created_at, updated_at
  FROM categories
  ORDER BY name
`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.get(ctx, &c, `SELECT id, name, created_at, updated_at FROM categories WHERE id = ?`, id)
	return c, err
}
