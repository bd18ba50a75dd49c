package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"medicart/internal/domain"
	"medicart/internal/repos"
)

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
	Now    clock
}

func NewAuthService(users *repos.UserRepo, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{Users: users, Secret: []byte(secret), TTL: ttl}
}

func (s *AuthService) check(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.check(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken checks credentials and signs a bearer token for the JSON API.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.check(ctx, email, password)
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.Now.now()
	exp := now.Add(s.TTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken verifies the signature and expiry, then reloads the user so a
// deleted account or changed role takes effect immediately.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (*domain.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Users.ByID(ctx, c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}
