package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type OrderBackend interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

// OrderRepository owns the order list and the order detail streams.
type OrderRepository struct {
	svc    OrderBackend
	list   *stream[[]domain.Order]
	detail *stream[*domain.Order]
}

func NewOrderRepository(svc OrderBackend) *OrderRepository {
	logger := logging.New("order-repository")
	return &OrderRepository{
		svc:    svc,
		list:   newStream(func(o []domain.Order) bool { return len(o) == 0 }, logger),
		detail: newStream(func(o *domain.Order) bool { return o == nil }, logger),
	}
}

func (r *OrderRepository) ListState() store.Observable[store.Value[[]domain.Order]] {
	return r.list.cell
}

func (r *OrderRepository) DetailState() store.Observable[store.Value[*domain.Order]] {
	return r.detail.cell
}

func (r *OrderRepository) LoadOrders(ctx context.Context) ([]domain.Order, error) {
	return r.list.load(ctx, r.svc.ListOrders)
}

func (r *OrderRepository) LoadOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return r.detail.load(ctx, func(ctx context.Context) (*domain.Order, error) {
		return r.svc.GetOrder(ctx, id)
	})
}

// CreateOrder creates the order and loads it fresh into the detail stream.
// When the write went through but the re-fetch did not, the created order is
// returned together with the error so the caller keeps holding it.
func (r *OrderRepository) CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	previous := r.detail.cell.Get().Data
	var created *domain.Order
	var createErr error

	order, err := r.detail.mutate(ctx, func(ctx context.Context) error {
		created, createErr = r.svc.CreateOrder(ctx, req, idempotencyKey)
		return createErr
	}, func(ctx context.Context) (*domain.Order, error) {
		switch {
		case created != nil:
			return r.svc.GetOrder(ctx, created.ID)
		case previous != nil:
			return r.svc.GetOrder(ctx, previous.ID)
		default:
			return nil, createErr
		}
	})
	if err != nil {
		if createErr == nil && created != nil {
			return created, err
		}
		return nil, err
	}
	r.refreshList(ctx)
	return order, nil
}

// UpdateStatus writes the status and returns the order as the backend now has it.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := r.detail.mutate(ctx, func(ctx context.Context) error {
		_, err := r.svc.UpdateOrderStatus(ctx, id, status)
		return err
	}, func(ctx context.Context) (*domain.Order, error) {
		return r.svc.GetOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	r.refreshList(ctx)
	return order, nil
}

// refreshList reloads the list only once something has shown it.
func (r *OrderRepository) refreshList(ctx context.Context) {
	if r.list.cell.Get().Phase == store.PhaseInitial {
		return
	}
	if _, err := r.LoadOrders(ctx); err != nil {
		r.list.logger.Warn("order list refresh failed", "error", err)
	}
}
