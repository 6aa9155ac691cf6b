package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) LogValue() slog.Value {
	return slog.GroupValue(slog.String("email", r.Email))
}

type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         domain.User `json:"user"`
}

type AuthService struct {
	client Doer
}

func NewAuthService(client Doer) *AuthService {
	return &AuthService{client: client}
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Do(ctx, epLogin, nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	return &resp, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.Do(ctx, epLogout, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}
