package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/domain"
)

type ProductQuery struct {
	Page   int
	Limit  int
	Search string
}

func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type ProductService struct {
	client Doer
}

func NewProductService(client Doer) *ProductService {
	return &ProductService{client: client}
}

func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.client.Do(ctx, epListProducts.WithQuery(q.Values()), nil, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := s.client.Do(ctx, epGetProduct.With(id), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.client.Do(ctx, epProductsByCategory.With(category), nil, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products in category %q: %w", category, err)
	}
	return products, nil
}

func (s *ProductService) ListByBrand(ctx context.Context, brand string) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.client.Do(ctx, epProductsByBrand.With(brand), nil, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products of brand %q: %w", brand, err)
	}
	return products, nil
}
