package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
)

// MockProducts implements Products and counts backend calls.
type MockProducts struct {
	Calls    atomic.Int32
	Products []domain.Product
	Err      error
	Delay    time.Duration

	mu      sync.Mutex
	queries []string
}

func (m *MockProducts) hit(q string) {
	m.Calls.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
}

func (m *MockProducts) ListProducts(_ context.Context, q service.ProductQuery) ([]domain.Product, error) {
	m.hit(q.Search)
	return m.Products, m.Err
}

func (m *MockProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.hit("id")
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.Products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MockProducts) ListByCategory(_ context.Context, category string) ([]domain.Product, error) {
	m.hit(category)
	return m.Products, m.Err
}

func (m *MockProducts) ListByBrand(_ context.Context, brand string) ([]domain.Product, error) {
	m.hit(brand)
	return m.Products, m.Err
}
