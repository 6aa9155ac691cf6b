package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
)

type ShippingService struct {
	client Doer
}

func NewShippingService(client Doer) *ShippingService {
	return &ShippingService{client: client}
}

func (s *ShippingService) ListAddresses(ctx context.Context) ([]domain.ShippingDetails, error) {
	var addresses []domain.ShippingDetails
	if err := s.client.Do(ctx, epListAddresses, nil, nil, &addresses); err != nil {
		return nil, fmt.Errorf("failed to list shipping addresses: %w", err)
	}
	return addresses, nil
}

func (s *ShippingService) GetDefaultAddress(ctx context.Context) (*domain.ShippingDetails, error) {
	var address domain.ShippingDetails
	if err := s.client.Do(ctx, epDefaultAddress, nil, nil, &address); err != nil {
		return nil, fmt.Errorf("failed to get default shipping address: %w", err)
	}
	return &address, nil
}

func (s *ShippingService) CreateAddress(ctx context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error) {
	var created domain.ShippingDetails
	if err := s.client.Do(ctx, epCreateAddress, nil, d, &created); err != nil {
		return nil, fmt.Errorf("failed to create shipping address: %w", err)
	}
	return &created, nil
}

func (s *ShippingService) UpdateAddress(ctx context.Context, id int64, d domain.ShippingDetails) error {
	if err := s.client.Do(ctx, epUpdateAddress.With(id), nil, d, nil); err != nil {
		return fmt.Errorf("failed to update shipping address %d: %w", id, err)
	}
	return nil
}

func (s *ShippingService) DeleteAddress(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, epDeleteAddress.With(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete shipping address %d: %w", id, err)
	}
	return nil
}

func (s *ShippingService) SetDefaultAddress(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, epSetDefaultAddress.With(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to set default shipping address %d: %w", id, err)
	}
	return nil
}
