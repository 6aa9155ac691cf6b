package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/credentials"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

var errBackend = &transport.Error{Kind: transport.KindServerError, Status: 500, Detail: "boom"}

func ptr[T any](v T) *T { return &v }

// recorder collects every value a stream delivers.
type recorder[T any] struct {
	mu     sync.Mutex
	values []store.Value[T]
}

func record[T any](o store.Observable[store.Value[T]]) *recorder[T] {
	r := &recorder[T]{}
	o.Subscribe(func(v store.Value[T]) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.values = append(r.values, v)
	})
	return r
}

func (r *recorder[T]) phases() []store.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Phase, 0, len(r.values))
	for _, v := range r.values {
		out = append(out, v.Phase)
	}
	return out
}

// MockCartBackend implements CartBackend for testing
type MockCartBackend struct {
	Cart      *domain.Cart
	GetErr    error
	GetErrs   []error // consumed one per GetCart call before GetErr applies
	MutateErr error
	GetCalls  int
	Added     []int64
}

func (m *MockCartBackend) GetCart(_ context.Context) (*domain.Cart, error) {
	m.GetCalls++
	if len(m.GetErrs) > 0 {
		err := m.GetErrs[0]
		m.GetErrs = m.GetErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	c := *m.Cart
	c.Items = append([]domain.CartItem(nil), m.Cart.Items...)
	return &c, nil
}

func (m *MockCartBackend) AddItem(_ context.Context, productID int64, quantity int) error {
	if m.MutateErr != nil {
		return m.MutateErr
	}
	m.Added = append(m.Added, productID)
	m.Cart.Items = append(m.Cart.Items, domain.CartItem{ID: int64(len(m.Cart.Items) + 1), ProductID: productID, Quantity: quantity})
	return nil
}

func (m *MockCartBackend) UpdateQuantity(_ context.Context, _ int64, _ int) error {
	return m.MutateErr
}

func (m *MockCartBackend) RemoveItem(_ context.Context, itemID int64) error {
	if m.MutateErr != nil {
		return m.MutateErr
	}
	items := m.Cart.Items[:0]
	for _, it := range m.Cart.Items {
		if it.ID != itemID {
			items = append(items, it)
		}
	}
	m.Cart.Items = items
	return nil
}

func (m *MockCartBackend) ClearCart(_ context.Context) error {
	if m.MutateErr != nil {
		return m.MutateErr
	}
	m.Cart.Items = nil
	return nil
}

// MockShippingBackend implements ShippingBackend for testing
type MockShippingBackend struct {
	Addresses    []domain.ShippingDetails
	Default      *domain.ShippingDetails
	ListErr      error
	MutateErr    error
	ListCalls    int
	DefaultCalls int
	nextID       int64
}

func (m *MockShippingBackend) ListAddresses(_ context.Context) ([]domain.ShippingDetails, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]domain.ShippingDetails, len(m.Addresses))
	copy(out, m.Addresses)
	return out, nil
}

func (m *MockShippingBackend) GetDefaultAddress(_ context.Context) (*domain.ShippingDetails, error) {
	m.DefaultCalls++
	if m.Default == nil {
		return nil, &transport.Error{Kind: transport.KindNotFound, Status: 404}
	}
	return m.Default, nil
}

func (m *MockShippingBackend) CreateAddress(_ context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error) {
	if m.MutateErr != nil {
		return nil, m.MutateErr
	}
	m.nextID++
	d.ID = ptr(100 + m.nextID)
	m.Addresses = append(m.Addresses, d)
	return &d, nil
}

func (m *MockShippingBackend) UpdateAddress(_ context.Context, id int64, d domain.ShippingDetails) error {
	if m.MutateErr != nil {
		return m.MutateErr
	}
	for i, a := range m.Addresses {
		if a.HasID(id) {
			d.ID = a.ID
			m.Addresses[i] = d
		}
	}
	return nil
}

func (m *MockShippingBackend) DeleteAddress(_ context.Context, _ int64) error {
	return m.MutateErr
}

// SetDefaultAddress does not touch the stored flags, like a backend whose
// list endpoint lags behind the write.
func (m *MockShippingBackend) SetDefaultAddress(_ context.Context, _ int64) error {
	return m.MutateErr
}

// MockOrderBackend implements OrderBackend for testing
type MockOrderBackend struct {
	Orders      map[int64]*domain.Order
	CreateErr   error
	UpdateErr   error
	GetErr      error
	GetFailures int // fail this many GetOrder calls before serving again
	CreateKeys  []string
	nextID      int64
}

func (m *MockOrderBackend) CreateOrder(_ context.Context, req domain.CreateOrderRequest, key string) (*domain.Order, error) {
	m.CreateKeys = append(m.CreateKeys, key)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	o := &domain.Order{ID: m.nextID, UserID: req.UserID, Status: domain.OrderStatusPending, ShippingAddressID: ptr(req.ShippingAddressID)}
	if m.Orders == nil {
		m.Orders = map[int64]*domain.Order{}
	}
	m.Orders[o.ID] = o
	return o, nil
}

func (m *MockOrderBackend) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	if m.GetFailures > 0 {
		m.GetFailures--
		return nil, errBackend
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return nil, &transport.Error{Kind: transport.KindNotFound, Status: 404}
	}
	c := *o
	return &c, nil
}

func (m *MockOrderBackend) ListOrders(_ context.Context) ([]domain.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	out := make([]domain.Order, 0, len(m.Orders))
	for id := int64(1); id <= m.nextID; id++ {
		if o, ok := m.Orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *MockOrderBackend) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return nil, &transport.Error{Kind: transport.KindNotFound, Status: 404}
	}
	o.Status = status
	c := *o
	return &c, nil
}

// MockAuthBackend implements AuthBackend for testing
type MockAuthBackend struct {
	Response  *service.AuthResponse
	LoginErr  error
	LogoutErr error
	LoggedOut bool
}

func (m *MockAuthBackend) Login(_ context.Context, _ service.LoginRequest) (*service.AuthResponse, error) {
	return m.Response, m.LoginErr
}

func (m *MockAuthBackend) Logout(_ context.Context) error {
	m.LoggedOut = true
	return m.LogoutErr
}

// MockUsers implements UserSnapshots in memory
type MockUsers struct {
	User    *domain.User
	SaveErr error
}

func (m *MockUsers) SaveUser(_ context.Context, u domain.User) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.User = &u
	return nil
}

func (m *MockUsers) LoadUser(_ context.Context) (*domain.User, error) {
	return m.User, nil
}

func (m *MockUsers) ClearUser(_ context.Context) error {
	m.User = nil
	return nil
}

var _ TokenStore = (*credentials.Store)(nil)

var errSave = errors.New("disk full")
