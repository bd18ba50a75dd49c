package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"medicart/internal/domain"
)

type NotificationRepo struct{ base }

func NewNotificationRepo(db sqlx.ExtContext) *NotificationRepo { return &NotificationRepo{base{db}} }

const notificationCols = `id, type, title, message, action_url, is_read, user_id, request_id, reminder_date, created_at`

func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) error {
	_, err := r.exec(ctx, `
  INSERT INTO notifications(`+notificationCols+`)
  VALUES(?,?,?,?,?,?,?,?,?,?)
`, n.ID, n.Type, n.Title, n.Message, n.ActionURL, n.Read, n.UserID, n.RequestID, n.ReminderDate, n.CreatedAt)
	return err
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.Notification{}
	err := r.sel(ctx, &out, `
  SELECT `+notificationCols+`
  FROM notifications
  WHERE user_id = ?
  ORDER BY created_at DESC, id
  LIMIT ?
`, userID, limit)
	return out, err
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.get(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID)
	return n, err
}

// MarkRead only touches the caller's own notification.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return r.execOne(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DueReminders returns unread reminders with reminder_date <= asOf (YYYY-MM-DD).
func (r *NotificationRepo) DueReminders(ctx context.Context, userID, asOf string) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := r.sel(ctx, &out, `
  SELECT `+notificationCols+`
  FROM notifications
  WHERE user_id = ? AND type = ? AND reminder_date <> '' AND reminder_date <= ? AND is_read = FALSE
  ORDER BY reminder_date, created_at
`, userID, domain.NotifyRequestReminder, asOf)
	return out, err
}
