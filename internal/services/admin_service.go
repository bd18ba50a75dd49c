package services

import (
	"context"
	"database/sql"
	"errors"

	"medicart/internal/domain"
	"medicart/internal/repos"
)

// FlagService toggles the fixed set of storefront feature flags.
type FlagService struct {
	Repo *repos.FlagRepo
	Now  clock
}

func NewFlagService(r *repos.FlagRepo) *FlagService { return &FlagService{Repo: r} }

func (s *FlagService) List(ctx context.Context) ([]domain.FeatureFlag, error) {
	return s.Repo.List(ctx)
}

// Enabled reports false for unknown flags.
func (s *FlagService) Enabled(ctx context.Context, name string) (bool, error) {
	f, err := s.Repo.Get(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Enabled, nil
}

func (s *FlagService) Set(ctx context.Context, name string, enabled bool) error {
	err := s.Repo.Set(ctx, name, enabled, s.Now.stamp())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFlagNotFound
	}
	return err
}

// CustomerService is the admin view of non-admin accounts.
type CustomerService struct {
	Store *repos.Store
}

func NewCustomerService(store *repos.Store) *CustomerService { return &CustomerService{Store: store} }

func (s *CustomerService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users.ListCustomers(ctx)
}

// Delete removes a customer with their sessions, carts, wishlists and
// notifications. Their orders stay on record as CANCELED.
func (s *CustomerService) Delete(ctx context.Context, userID string) error {
	return s.Store.InTx(ctx, func(r *repos.Repos) error {
		u, err := r.Users.ByID(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		if u.IsAdmin() {
			return invalid("user_id", "Admin accounts cannot be deleted here")
		}
		return r.Users.DeleteUserCascade(ctx, userID)
	})
}
