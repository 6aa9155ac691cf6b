package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/domain"
)

type OrderService struct {
	client Doer
}

func NewOrderService(client Doer) *OrderService {
	return &OrderService{client: client}
}

// CreateOrder sends idempotencyKey so a replayed request returns the same order.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{idempotencyHeader: []string{idempotencyKey}}
	}
	var order domain.Order
	if err := s.client.Do(ctx, epCreateOrder, headers, req, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := s.client.Do(ctx, epGetOrder.With(id), nil, nil, &order); err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.client.Do(ctx, epListOrders, nil, nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	var order domain.Order
	req := domain.UpdateOrderStatusRequest{Status: status}
	if err := s.client.Do(ctx, epUpdateOrderStatus.With(id), nil, req, &order); err != nil {
		return nil, fmt.Errorf("failed to update order %d to %s: %w", id, status, err)
	}
	return &order, nil
}
