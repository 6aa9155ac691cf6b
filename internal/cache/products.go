package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/service"
)

// Products is the catalog read surface being cached.
type Products interface {
	ListProducts(ctx context.Context, q service.ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListByBrand(ctx context.Context, brand string) ([]domain.Product, error)
}

type Store interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, v any) error
}

// CachedProducts serves catalog reads from redis. A cache failure never
// fails a read; the backend is asked instead.
type CachedProducts struct {
	next   Products
	cache  Store
	sfg    singleflight.Group // Prevents cache stampede
	logger *slog.Logger
}

func NewCachedProducts(next Products, cache Store) *CachedProducts {
	return &CachedProducts{
		next:   next,
		cache:  cache,
		logger: logging.New("product-cache"),
	}
}

func (c *CachedProducts) ListProducts(ctx context.Context, q service.ProductQuery) ([]domain.Product, error) {
	return load(ctx, c, "products:list:"+hashKey(q.Values().Encode()), func() ([]domain.Product, error) {
		return c.next.ListProducts(ctx, q)
	})
}

func (c *CachedProducts) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return load(ctx, c, "products:id:"+strconv.FormatInt(id, 10), func() (*domain.Product, error) {
		return c.next.GetProduct(ctx, id)
	})
}

func (c *CachedProducts) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return load(ctx, c, "products:category:"+hashKey(strings.ToLower(category)), func() ([]domain.Product, error) {
		return c.next.ListByCategory(ctx, category)
	})
}

func (c *CachedProducts) ListByBrand(ctx context.Context, brand string) ([]domain.Product, error) {
	return load(ctx, c, "products:brand:"+hashKey(strings.ToLower(brand)), func() ([]domain.Product, error) {
		return c.next.ListByBrand(ctx, brand)
	})
}

func load[T any](ctx context.Context, c *CachedProducts, key string, fetch func() (T, error)) (T, error) {
	v, err, _ := c.sfg.Do(key, func() (any, error) {
		var cached T
		err := c.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("cache get error", "key", key, "error", err)
		}

		fresh, err := fetch()
		if err != nil {
			return fresh, err
		}
		if err := c.cache.Set(ctx, key, fresh); err != nil {
			c.logger.Warn("cache set error", "key", key, "error", err)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected cached type %T for %s", v, key)
	}
	return out, nil
}

func hashKey(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
