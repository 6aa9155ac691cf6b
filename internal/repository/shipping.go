package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

type ShippingBackend interface {
	ListAddresses(ctx context.Context) ([]domain.ShippingDetails, error)
	GetDefaultAddress(ctx context.Context) (*domain.ShippingDetails, error)
	CreateAddress(ctx context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error)
	UpdateAddress(ctx context.Context, id int64, d domain.ShippingDetails) error
	DeleteAddress(ctx context.Context, id int64) error
	SetDefaultAddress(ctx context.Context, id int64) error
}

type ShippingRepository struct {
	svc   ShippingBackend
	state *stream[[]domain.ShippingDetails]
}

func NewShippingRepository(svc ShippingBackend) *ShippingRepository {
	return &ShippingRepository{
		svc:   svc,
		state: newStream(func(a []domain.ShippingDetails) bool { return len(a) == 0 }, logging.New("shipping-repository")),
	}
}

func (r *ShippingRepository) State() store.Observable[store.Value[[]domain.ShippingDetails]] {
	return r.state.cell
}

func (r *ShippingRepository) Load(ctx context.Context) ([]domain.ShippingDetails, error) {
	return r.state.load(ctx, r.svc.ListAddresses)
}

// Default returns the account's default address, or nil when it has none.
// A loaded list answers without a request.
func (r *ShippingRepository) Default(ctx context.Context) (*domain.ShippingDetails, error) {
	if v := r.state.cell.Get(); v.Phase == store.PhaseLoaded {
		if d, ok := domain.DefaultAddress(v.Data); ok {
			return &d, nil
		}
	}
	d, err := r.svc.GetDefaultAddress(ctx)
	if errors.Is(err, transport.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d == nil || !d.Persisted() {
		return nil, nil
	}
	return d, nil
}

// Create persists d and returns it as listed by the backend.
func (r *ShippingRepository) Create(ctx context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error) {
	var created *domain.ShippingDetails
	list, err := r.state.mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = r.svc.CreateAddress(ctx, d)
		return err
	}, r.svc.ListAddresses)
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == nil {
		return nil, ErrNotPersisted
	}
	for _, a := range list {
		if a.HasID(*created.ID) {
			return &a, nil
		}
	}
	return created, nil
}

func (r *ShippingRepository) Update(ctx context.Context, id int64, d domain.ShippingDetails) error {
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		return r.svc.UpdateAddress(ctx, id, d)
	}, r.svc.ListAddresses)
	return err
}

func (r *ShippingRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		return r.svc.DeleteAddress(ctx, id)
	}, r.svc.ListAddresses)
	return err
}

// SetDefault makes id the only default address in the exposed list, even if
// the re-fetched list still flags the old one.
func (r *ShippingRepository) SetDefault(ctx context.Context, id int64) error {
	applied := false
	_, err := r.state.mutate(ctx, func(ctx context.Context) error {
		if err := r.svc.SetDefaultAddress(ctx, id); err != nil {
			return err
		}
		applied = true
		return nil
	}, func(ctx context.Context) ([]domain.ShippingDetails, error) {
		list, err := r.svc.ListAddresses(ctx)
		if err != nil || !applied {
			return list, err
		}
		return domain.NormalizeDefault(list, id), nil
	})
	return err
}
