package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/credentials"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type AuthBackend interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	Logout(ctx context.Context) error
}

type TokenStore interface {
	Load(ctx context.Context) error
	Save(ctx context.Context, t credentials.Tokens) error
	Clear(ctx context.Context) error
	Token() (string, error)
	Subject() (int64, bool)
}

// UserSnapshots persists the signed-in user across restarts.
type UserSnapshots interface {
	SaveUser(ctx context.Context, u domain.User) error
	LoadUser(ctx context.Context) (*domain.User, error)
	ClearUser(ctx context.Context) error
}

// AuthRepository owns the session stream: loaded holds the signed-in user,
// empty means signed out.
type AuthRepository struct {
	svc    AuthBackend
	tokens TokenStore
	users  UserSnapshots
	state  *stream[*domain.User]
}

func NewAuthRepository(svc AuthBackend, tokens TokenStore, users UserSnapshots) *AuthRepository {
	return &AuthRepository{
		svc:    svc,
		tokens: tokens,
		users:  users,
		state:  newStream(func(u *domain.User) bool { return u == nil }, logging.New("auth-repository")),
	}
}

func (r *AuthRepository) State() store.Observable[store.Value[*domain.User]] {
	return r.state.cell
}

// CurrentUser is safe to call from any goroutine.
func (r *AuthRepository) CurrentUser() (*domain.User, bool) {
	v := r.state.cell.Get()
	if !v.IsLoaded() || v.Data == nil {
		return nil, false
	}
	u := *v.Data
	return &u, true
}

// Restore brings back the session saved by a previous run. A snapshot
// without a usable token, or whose token names another user, counts as
// signed out.
func (r *AuthRepository) Restore(ctx context.Context) (*domain.User, error) {
	return r.state.load(ctx, func(ctx context.Context) (*domain.User, error) {
		if err := r.tokens.Load(ctx); err != nil {
			return nil, err
		}
		u, err := r.users.LoadUser(ctx)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, nil
		}
		if _, err := r.tokens.Token(); err != nil {
			r.state.logger.Info("stored session is no longer valid", "user_id", u.ID, "reason", err)
			return nil, nil
		}
		if sub, ok := r.tokens.Subject(); ok && sub != u.ID {
			r.state.logger.Warn("stored session belongs to another user", "user_id", u.ID, "subject", sub)
			return nil, nil
		}
		return u, nil
	})
}

func (r *AuthRepository) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return r.state.load(ctx, func(ctx context.Context) (*domain.User, error) {
		resp, err := r.svc.Login(ctx, service.LoginRequest{Email: email, Password: password})
		if err != nil {
			return nil, err
		}
		if err := r.tokens.Save(ctx, credentials.Tokens{Access: resp.AccessToken, Refresh: resp.RefreshToken}); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		if err := r.users.SaveUser(ctx, resp.User); err != nil {
			return nil, fmt.Errorf("failed to store user: %w", err)
		}
		u := resp.User
		return &u, nil
	})
}

// Logout always ends the local session; the backend call is best effort.
func (r *AuthRepository) Logout(ctx context.Context) error {
	if err := r.svc.Logout(ctx); err != nil {
		r.state.logger.Warn("backend logout failed", "error", err)
	}
	var errs []error
	if err := r.tokens.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := r.users.ClearUser(ctx); err != nil {
		errs = append(errs, err)
	}
	r.state.cell.Set(store.Empty[*domain.User]())
	if len(errs) > 0 {
		return fmt.Errorf("failed to clear session: %w", errors.Join(errs...))
	}
	return nil
}
