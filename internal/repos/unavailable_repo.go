package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

// UnavailableRepo counts searches for medicines the catalog does not carry.
type UnavailableRepo struct{ base }

func NewUnavailableRepo(db sqlx.ExtContext) *UnavailableRepo { return &UnavailableRepo{base{db}} }

// RecordSearch bumps the counter for name (lower-cased) and reports whether
// this was the first time it was seen.
func (r *UnavailableRepo) RecordSearch(ctx context.Context, name, at string) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	res, err := r.exec(ctx, `
  UPDATE unavailable_medicines
  SET search_count = search_count + 1, last_searched_at = ?
  WHERE medicine_name = ?
`, at, name)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = r.exec(ctx, `
  INSERT INTO unavailable_medicines(medicine_name, search_count, first_searched_at, last_searched_at, status)
  VALUES(?, 1, ?, ?, 'pending')
  ON CONFLICT(medicine_name) DO UPDATE SET
    search_count = unavailable_medicines.search_count + 1,
    last_searched_at = excluded.last_searched_at
`, name, at, at)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UnavailableRepo) List(ctx context.Context) ([]domain.UnavailableMedicine, error) {
	out := []domain.UnavailableMedicine{}
	err := r.sel(ctx, &out, `
  SELECT medicine_name, search_count, first_searched_at, last_searched_at, status
  FROM unavailable_medicines
  ORDER BY search_count DESC, medicine_name
`)
	return out, err
}

func (r *UnavailableRepo) UpdateStatus(ctx context.Context, name string, status domain.RequestStatus) error {
	return r.execOne(ctx, `UPDATE unavailable_medicines SET status = ? WHERE medicine_name = ?`,
		status, strings.ToLower(strings.TrimSpace(name)))
}
