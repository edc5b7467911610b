package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"canteen/internal/domain"
	"canteen/internal/repos"
	"canteen/internal/validate"
)

var ErrBadCreds = errors.New("invalid mobile number or password")

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

func (s *AuthService) Login(ctx context.Context, sid, mobile, password string) (*domain.User, error) {
	mobile, ok := validate.Mobile(mobile)
	if !ok || !validate.Password(password) {
		return nil, ErrBadCreds
	}
	u, err := s.Users.ByMobile(ctx, mobile)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
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
