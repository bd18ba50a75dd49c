package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type FlagRepo struct{ base }

func NewFlagRepo(db sqlx.ExtContext) *FlagRepo { return &FlagRepo{base{db}} }

func (r *FlagRepo) List(ctx context.Context) ([]domain.FeatureFlag, error) {
	out := []domain.FeatureFlag{}
	err := r.sel(ctx, &out, `SELECT name, enabled, updated_at FROM feature_flags ORDER BY name`)
	return out, err
}

func (r *FlagRepo) Get(ctx context.Context, name string) (domain.FeatureFlag, error) {
	var f domain.FeatureFlag
	err := r.get(ctx, &f, `SELECT name, enabled, updated_at FROM feature_flags WHERE name = ?`, name)
	return f, err
}

// Set fails with sql.ErrNoRows for unknown flags; the set of flags is fixed at seed time.
func (r *FlagRepo) Set(ctx context.Context, name string, enabled bool, at string) error {
	return r.execOne(ctx, `UPDATE feature_flags SET enabled = ?, updated_at = ? WHERE name = ?`, enabled, at, name)
}
