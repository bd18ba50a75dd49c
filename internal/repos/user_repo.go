package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type UserRepo struct{ base }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{base{db}} }

const userCols = `id, email, name, phone, password_hash, role`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.get(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.get(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByRole backs admin fan-out (report and request notifications).
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	out := []domain.User{}
	err := r.sel(ctx, &out, `SELECT `+userCols+` FROM users WHERE role=? ORDER BY email`, role)
	return out, err
}

// ListCustomers lists users (excluding admin).
func (r *UserRepo) ListCustomers(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.sel(ctx, &out, `SELECT `+userCols+` FROM users WHERE role <> 'ADMIN' ORDER BY email`)
	return out, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	_, err := r.exec(ctx, `INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`, sid, userID, ts, ts)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.get(ctx, &u, `
      SELECT u.id,u.email,u.name,u.phone,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.exec(ctx, `UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`,
		time.Now().UTC().Format(time.RFC3339), sid)
	return err
}

// DeleteUserCascade cancels orders and deletes user-related data (sessions, carts,
// wishlists, notifications) while keeping orders for audit. Run it inside Store.InTx.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	var sessionIDs []string
	if err := r.sel(ctx, &sessionIDs, `SELECT id FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}

	if len(sessionIDs) > 0 {
		// Cancel orders tied to those sessions (retain rows for audit)
		if _, err := r.in(ctx, `UPDATE orders SET status='CANCELED' WHERE session_id IN (?)`, sessionIDs); err != nil {
			return err
		}
		// Carts and wishlists are keyed by session id; items cascade.
		if _, err := r.in(ctx, `DELETE FROM carts WHERE session_id IN (?)`, sessionIDs); err != nil {
			return err
		}
		if _, err := r.in(ctx, `DELETE FROM wishlists WHERE session_id IN (?)`, sessionIDs); err != nil {
			return err
		}
		if _, err := r.in(ctx, `DELETE FROM sessions WHERE id IN (?)`, sessionIDs); err != nil {
			return err
		}
	}

	if _, err := r.exec(ctx, `DELETE FROM notifications WHERE user_id=?`, userID); err != nil {
		return err
	}
	return r.execOne(ctx, `DELETE FROM users WHERE id=?`, userID)
}
