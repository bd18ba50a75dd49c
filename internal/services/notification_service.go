package services

import (
	"context"
	"database/sql"
	"errors"

	"medicart/internal/domain"
	"medicart/internal/repos"
)

type NotificationService struct {
	Repo *repos.NotificationRepo
	Now  clock
}

func NewNotificationService(r *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Repo: r}
}

type Inbox struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread"`
	Due    []domain.Notification `json:"due_reminders"`
}

// Inbox lists the newest notifications for userID, the unread count and any
// reminders whose date has come.
func (s *NotificationService) Inbox(ctx context.Context, userID string) (Inbox, error) {
	items, err := s.Repo.ListForUser(ctx, userID, 50)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.Repo.UnreadCount(ctx, userID)
	if err != nil {
		return Inbox{}, err
	}
	due, err := s.Repo.DueReminders(ctx, userID, s.Now.today())
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{Items: items, Unread: unread, Due: due}, nil
}

func (s *NotificationService) Unread(ctx context.Context, userID string) (int, error) {
	return s.Repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := s.Repo.MarkRead(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}
