package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type RequestRepo struct{ base }

func NewRequestRepo(db sqlx.ExtContext) *RequestRepo { return &RequestRepo{base{db}} }

const requestCols = `id, customer_name, email, phone, medicine_name, message, status, notes, created_at, updated_at`

func (r *RequestRepo) Create(ctx context.Context, m domain.MedicineRequest) error {
	_, err := r.exec(ctx, `
  INSERT INTO medicine_requests(`+requestCols+`)
  VALUES(?,?,?,?,?,?,?,?,?,?)
`, m.ID, m.CustomerName, m.Email, m.Phone, m.MedicineName, m.Message, m.Status, m.Notes, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *RequestRepo) Get(ctx context.Context, id string) (domain.MedicineRequest, error) {
	var m domain.MedicineRequest
	err := r.get(ctx, &m, `SELECT `+requestCols+` FROM medicine_requests WHERE id = ?`, id)
	return m, err
}

// List returns newest first; an empty status means all.
func (r *RequestRepo) List(ctx context.Context, status domain.RequestStatus) ([]domain.MedicineRequest, error) {
	out := []domain.MedicineRequest{}
	if status == "" {
		err := r.sel(ctx, &out, `SELECT `+requestCols+` FROM medicine_requests ORDER BY created_at DESC, id`)
		return out, err
	}
	err := r.sel(ctx, &out, `
  SELECT `+requestCols+`
  FROM medicine_requests
  WHERE status = ?
  ORDER BY created_at DESC, id
`, status)
	return out, err
}

func (r *RequestRepo) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, notes, at string) error {
	return r.execOne(ctx, `
  UPDATE medicine_requests SET status = ?, notes = ?, updated_at = ? WHERE id = ?
`, status, notes, at, id)
}

// CountByStatus feeds the dashboard badges.
func (r *RequestRepo) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	var rows []struct {
		Status domain.RequestStatus `db:"status"`
		N      int                  `db:"n"`
	}
	if err := r.sel(ctx, &rows, `SELECT status, COUNT(*) AS n FROM medicine_requests GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[domain.RequestStatus]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
