package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

type tokenStub string

func (t tokenStub) Token() (string, error) { return string(t), nil }

type capture struct {
	mu      sync.Mutex
	method  string
	path    string
	headers http.Header
	body    map[string]any
}

func (c *capture) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = r.Method
	c.path = r.URL.Path
	c.headers = r.Header.Clone()
	c.body = nil
	_ = json.NewDecoder(r.Body).Decode(&c.body)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*transport.Client, *capture) {
	t.Helper()
	c := &capture{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c.record(req)
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, AuthResponse{AccessToken: "tok", User: domain.User{ID: 1, Email: "ada@example.com"}})
	})
	r.Get("/cart", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, domain.Cart{ID: 9, Items: []domain.CartItem{{ID: 1, ProductID: 5, Quantity: 2, UnitPrice: decimal.NewFromInt(20)}}})
	})
	r.Put("/cart/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/products", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, []domain.Product{{ID: 1, Name: req.URL.Query().Get("search")}})
	})
	r.Get("/products/category/{category}", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, []domain.Product{{ID: 2, Category: chi.URLParam(req, "category")}})
	})
	r.Post("/orders", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusCreated, domain.Order{ID: 100, Status: domain.OrderStatusPending, TotalAmount: decimal.NewFromInt(40)})
	})
	r.Patch("/orders/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		respondJSON(w, http.StatusOK, domain.Order{ID: id, Status: domain.OrderStatusPaid})
	})
	r.Get("/shipping/default", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Put("/shipping/{id}/default", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/payments/intents/{id}/confirm", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, domain.PaymentIntent{ID: chi.URLParam(req, "id"), Status: "succeeded"})
	})
	r.Get("/wishlist", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, domain.WishList{ID: 3, Products: []domain.Product{{ID: 5}}})
	})
	r.Post("/wishlist/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/wishlist/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/payments/methods", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"id": "pm_123"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return transport.New(srv.URL, time.Second, tokenStub("tok")), c
}

func TestAuthService_Login(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewAuthService(client)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "ada@example.com", c.body["email"])
	assert.Empty(t, c.headers.Get("Authorization"))
}

func TestCartService(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewCartService(client)

	cart, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(cart.Total()))
	assert.Equal(t, "Bearer tok", c.headers.Get("Authorization"))

	require.NoError(t, svc.UpdateQuantity(context.Background(), 1, 3))
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/cart/items/1", c.path)
	assert.Equal(t, float64(3), c.body["quantity"])
}

func TestProductService(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewProductService(client)

	products, err := svc.ListProducts(context.Background(), ProductQuery{Page: 2, Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "lamp", products[0].Name)

	products, err = svc.ListByCategory(context.Background(), "home & garden")
	require.NoError(t, err)
	assert.Equal(t, "home & garden", products[0].Category)
	assert.Equal(t, "/products/category/home & garden", c.path)
}

func TestOrderService_CreateSendsIdempotencyKey(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewOrderService(client)

	order, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{UserID: 1, ShippingAddressID: 7, PaymentMethod: "card"}, "key-1")

	require.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)
	assert.Equal(t, "key-1", c.headers.Get(idempotencyHeader))
	assert.Equal(t, float64(7), c.body["shipping_address_id"])
}

func TestOrderService_UpdateStatus(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewOrderService(client)

	order, err := svc.UpdateOrderStatus(context.Background(), 100, domain.OrderStatusPaid)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, http.MethodPatch, c.method)
	assert.Equal(t, "paid", c.body["status"])
}

func TestShippingService(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewShippingService(client)

	_, err := svc.GetDefaultAddress(context.Background())
	assert.ErrorIs(t, err, transport.ErrNotFound)

	require.NoError(t, svc.SetDefaultAddress(context.Background(), 7))
	assert.Equal(t, "/shipping/7/default", c.path)
}

func TestPaymentService(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewPaymentService(client)

	intent, err := svc.ConfirmPaymentIntent(context.Background(), "pi_1", domain.ConfirmIntentRequest{PaymentMethodID: "pm_1", PaymentMethodType: domain.PaymentMethodCard})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "/payments/intents/pi_1/confirm", c.path)

	id, err := svc.CreatePaymentMethod(context.Background(), domain.CardParams{Number: "4242424242424242", ExpMonth: 7, ExpYear: 2030, CVC: "123"})
	require.NoError(t, err)
	assert.Equal(t, "pm_123", id)
	assert.Equal(t, float64(2030), c.body["exp_year"])
}

func TestWishListService(t *testing.T) {
	client, c := newTestClient(t)
	svc := NewWishListService(client)
	ctx := context.Background()

	list, err := svc.GetWishList(ctx)
	require.NoError(t, err)
	assert.True(t, list.Contains(5))
	assert.False(t, list.Contains(6))

	require.NoError(t, svc.AddToWishList(ctx, 6))
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/wishlist/6", c.path)

	err = svc.RemoveFromWishList(ctx, 7)
	assert.ErrorIs(t, err, transport.ErrNotFound)
}
