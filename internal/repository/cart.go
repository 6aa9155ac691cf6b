package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type CartBackend interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
}

type CartRepository struct {
	svc   CartBackend
	state *stream[*domain.Cart]
}

func NewCartRepository(svc CartBackend) *CartRepository {
	logger := logging.New("cart-repository")
	return &CartRepository{
		svc:   svc,
		state: newStream(func(c *domain.Cart) bool { return c.IsEmpty() }, logger),
	}
}

func (r *CartRepository) State() store.Observable[store.Value[*domain.Cart]] {
	return r.state.cell
}

// Current returns the last loaded cart, or nil.
func (r *CartRepository) Current() *domain.Cart {
	v := r.state.cell.Get()
	switch v.Phase {
	case store.PhaseLoaded, store.PhaseUpdating:
		return v.Data
	case store.PhaseEmpty:
		return &domain.Cart{}
	default:
		return nil
	}
}

func (r *CartRepository) Load(ctx context.Context) (*domain.Cart, error) {
	return r.state.load(ctx, r.svc.GetCart)
}

func (r *CartRepository) AddItem(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		return r.svc.AddItem(ctx, productID, quantity)
	}, r.svc.GetCart)
	return err
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		return r.svc.UpdateQuantity(ctx, itemID, quantity)
	}, r.svc.GetCart)
	return err
}

func (r *CartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		return r.svc.RemoveItem(ctx, itemID)
	}, r.svc.GetCart)
	return err
}

func (r *CartRepository) Clear(ctx context.Context) error {
	_, err := r.state.mutate(ctx, r.svc.ClearCart, r.svc.GetCart)
	return err
}

// Refresh reloads the cart and only logs a failure; the error state still surfaces it.
func (r *CartRepository) Refresh(ctx context.Context) {
	if _, err := r.Load(ctx); err != nil {
		r.state.logger.Warn("cart refresh failed", "error", err)
	}
}
