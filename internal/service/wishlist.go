package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
)

type WishListService struct {
	client Doer
}

func NewWishListService(client Doer) *WishListService {
	return &WishListService{client: client}
}

func (s *WishListService) GetWishList(ctx context.Context) (*domain.WishList, error) {
	var w domain.WishList
	if err := s.client.Do(ctx, epGetWishList, nil, nil, &w); err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return &w, nil
}

func (s *WishListService) AddToWishList(ctx context.Context, productID int64) error {
	if err := s.client.Do(ctx, epAddWishList.With(productID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to add product %d to wishlist: %w", productID, err)
	}
	return nil
}

func (s *WishListService) RemoveFromWishList(ctx context.Context, productID int64) error {
	if err := s.client.Do(ctx, epRemoveWishList.With(productID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to remove product %d from wishlist: %w", productID, err)
	}
	return nil
}
