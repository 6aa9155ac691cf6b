package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
)

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartService mutations discard the response body; callers re-fetch the cart.
type CartService struct {
	client Doer
}

func NewCartService(client Doer) *CartService {
	return &CartService{client: client}
}

func (s *CartService) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := s.client.Do(ctx, epGetCart, nil, nil, &cart); err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (s *CartService) AddItem(ctx context.Context, productID int64, quantity int) error {
	req := AddCartItemRequest{ProductID: productID, Quantity: quantity}
	if err := s.client.Do(ctx, epAddCartItem, nil, req, nil); err != nil {
		return fmt.Errorf("failed to add item to cart: %w", err)
	}
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	req := UpdateQuantityRequest{Quantity: quantity}
	if err := s.client.Do(ctx, epUpdateCartItem.With(itemID), nil, req, nil); err != nil {
		return fmt.Errorf("failed to update cart item %d: %w", itemID, err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.client.Do(ctx, epRemoveCartItem.With(itemID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context) error {
	if err := s.client.Do(ctx, epClearCart, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
