package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/configs"
	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/app"
)

// shopBackend keeps cart, wish list and addresses in memory.
type shopBackend struct {
	mu        sync.Mutex
	cart      domain.Cart
	wish      []domain.Product
	addresses []domain.ShippingDetails
	nextID    int64
	calls     []string
	catalog   int
}

func newShopBackend() *shopBackend {
	id := int64(3)
	return &shopBackend{
		cart:   domain.Cart{ID: 1, UserID: 42},
		nextID: 10,
		addresses: []domain.ShippingDetails{{ID: &id, FullName: "Ada Lovelace", Phone: "5551234567", Street: "1 Main St",
			City: "Springfield", State: "IL", PostalCode: "62701", Country: "US", IsDefault: true}},
	}
}

var lamp = domain.Product{ID: 5, Name: "Desk lamp", Price: decimal.NewFromInt(25), Category: "home", Brand: "Acme"}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func idParam(req *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	return id
}

func (b *shopBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			b.calls = append(b.calls, req.Method+" "+strings.TrimPrefix(req.URL.Path, "/api/v1"))
			b.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"access_token": "opaque-token", "user": domain.User{ID: 42, FirstName: "Ada"}})
		})
		r.Get("/products/category/{category}", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			b.catalog++
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, []domain.Product{lamp})
		})
		r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
			if idParam(req) != lamp.ID {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "no such product"})
				return
			}
			writeJSON(w, http.StatusOK, lamp)
		})

		r.Get("/cart", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.cart)
		})
		r.Post("/cart/items", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				ProductID int64 `json:"product_id"`
				Quantity  int   `json:"quantity"`
			}
			_ = json.NewDecoder(req.Body).Decode(&body)
			b.mu.Lock()
			defer b.mu.Unlock()
			b.nextID++
			b.cart.Items = append(b.cart.Items, domain.CartItem{ID: b.nextID, ProductID: body.ProductID, Name: lamp.Name,
				Quantity: body.Quantity, UnitPrice: lamp.Price})
			w.WriteHeader(http.StatusCreated)
		})
		r.Put("/cart/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Quantity int `json:"quantity"`
			}
			_ = json.NewDecoder(req.Body).Decode(&body)
			b.mu.Lock()
			defer b.mu.Unlock()
			for i := range b.cart.Items {
				if b.cart.Items[i].ID == idParam(req) {
					b.cart.Items[i].Quantity = body.Quantity
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/cart/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			kept := b.cart.Items[:0]
			for _, item := range b.cart.Items {
				if item.ID != idParam(req) {
					kept = append(kept, item)
				}
			}
			b.cart.Items = kept
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/cart", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.cart.Items = nil
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/wishlist", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, domain.WishList{ID: 1, UserID: 42, Products: b.wish})
		})
		r.Post("/wishlist/{id}", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.wish = append(b.wish, lamp)
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/wishlist/{id}", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.wish = nil
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/shipping", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.addresses)
		})
		r.Post("/shipping", func(w http.ResponseWriter, req *http.Request) {
			var d domain.ShippingDetails
			_ = json.NewDecoder(req.Body).Decode(&d)
			b.mu.Lock()
			defer b.mu.Unlock()
			b.nextID++
			id := b.nextID
			d.ID = &id
			b.addresses = append(b.addresses, d)
			writeJSON(w, http.StatusCreated, d)
		})
		r.Put("/shipping/{id}", func(w http.ResponseWriter, req *http.Request) {
			var d domain.ShippingDetails
			_ = json.NewDecoder(req.Body).Decode(&d)
			b.mu.Lock()
			defer b.mu.Unlock()
			for i := range b.addresses {
				if b.addresses[i].HasID(idParam(req)) {
					d.ID = b.addresses[i].ID
					b.addresses[i] = d
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/shipping/{id}", func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			kept := b.addresses[:0]
			for _, a := range b.addresses {
				if !a.HasID(idParam(req)) {
					kept = append(kept, a)
				}
			}
			b.addresses = kept
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func (b *shopBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type session struct {
	cli     *cli
	out     *bytes.Buffer
	backend *shopBackend
}

// newSession signs in against a fresh backend; input feeds the prompts.
func newSession(t *testing.T, input string, redisAddr string) *session {
	t.Helper()
	backend := newShopBackend()
	srv := httptest.NewServer(backend.routes())
	t.Cleanup(srv.Close)

	var cfg configs.Config
	cfg.App.Name = "storefront-test"
	cfg.App.LogLevel = "error"
	cfg.API.BaseURL = srv.URL + "/api/v1"
	cfg.API.Timeout = 5 * time.Second
	cfg.API.UserAgent = "storefront-test"
	cfg.Breaker.FailureThreshold = 5
	cfg.Payment.Currency = "usd"
	cfg.Payment.ReturnURL = "storefront://return"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "storefront.db")
	cfg.Redis.Addr = redisAddr
	cfg.Redis.TTL = time.Minute
	require.NoError(t, cfg.Validate())

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out := &bytes.Buffer{}
	c := &cli{app: a, in: bufio.NewReader(strings.NewReader(input)), out: out}
	require.NoError(t, c.run(context.Background(), []string{"login", "ada@example.com", "secret"}))
	out.Reset()
	return &session{cli: c, out: out, backend: backend}
}

func (s *session) run(t *testing.T, args ...string) string {
	t.Helper()
	s.out.Reset()
	require.NoError(t, s.cli.run(context.Background(), args))
	return s.out.String()
}

func TestCLI_ProductsByCategoryServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newSession(t, "", mr.Addr())

	first := s.run(t, "products", "-category", "home")
	second := s.run(t, "products", "-category", "home")

	assert.Contains(t, first, "Desk lamp")
	assert.Equal(t, first, second)
	s.backend.mu.Lock()
	assert.Equal(t, 1, s.backend.catalog, "the second listing comes from redis")
	s.backend.mu.Unlock()

	assert.Contains(t, s.run(t, "product", "5"), "Desk lamp")
}

func TestCLI_CartEdits(t *testing.T) {
	s := newSession(t, "", "")

	out := s.run(t, "cart", "add", "5", "2")
	assert.Contains(t, out, "x2")
	assert.Contains(t, out, "Total: 50.00")

	out = s.run(t, "cart", "qty", "11", "3")
	assert.Contains(t, out, "Total: 75.00")

	s.run(t, "cart", "add", "5")
	out = s.run(t, "cart", "rm", "11")
	assert.Contains(t, out, "Total: 25.00")

	assert.Contains(t, s.run(t, "cart", "clear"), "Your cart is empty.")
	assert.Contains(t, s.backend.callLog(), "PUT /cart/items/11")
	assert.Contains(t, s.backend.callLog(), "DELETE /cart")
}

func TestCLI_CartRejectsZeroQuantity(t *testing.T) {
	s := newSession(t, "", "")

	err := s.cli.run(context.Background(), []string{"cart", "add", "5", "0"})

	assert.Error(t, err)
	assert.NotContains(t, s.backend.callLog(), "POST /cart/items")
}

func TestCLI_WishList(t *testing.T) {
	s := newSession(t, "", "")

	assert.Contains(t, s.run(t, "wishlist"), "Your wish list is empty.")
	assert.Contains(t, s.run(t, "wishlist", "add", "5"), "Desk lamp")
	assert.Contains(t, s.run(t, "wishlist", "rm", "5"), "Your wish list is empty.")
	assert.Contains(t, s.backend.callLog(), "POST /wishlist/5")
}

func TestCLI_AddressAddEditRemove(t *testing.T) {
	input := strings.Join([]string{
		// address add
		"Charles Babbage", "555 765 4321", "2 Side St", "Shelbyville", "IL", "62565", "US",
		// address edit 11: only the street changes
		"", "", "3 Side St", "", "", "", "",
	}, "\n") + "\n"
	s := newSession(t, input, "")

	out := s.run(t, "address", "add")
	assert.Contains(t, out, "Charles Babbage, 2 Side St")

	out = s.run(t, "address", "edit", "11")
	assert.Contains(t, out, "Charles Babbage, 3 Side St")
	assert.Contains(t, out, "Street [2 Side St]: ")

	out = s.run(t, "address", "rm", "11")
	assert.NotContains(t, out, "Charles Babbage")
	assert.Contains(t, out, "Ada Lovelace")
}

func TestCLI_AddressAddInvalidFormMakesNoCall(t *testing.T) {
	input := strings.Join([]string{"Charles Babbage", "123", "2 Side St", "Shelbyville", "IL", "62565", ""}, "\n") + "\n"
	s := newSession(t, input, "")

	err := s.cli.run(context.Background(), []string{"address", "add"})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, domain.FieldPhone)
	assert.Contains(t, verrs, domain.FieldCountry)
	assert.Contains(t, s.out.String(), "Phone must have 7 to 15 digits")
	assert.NotContains(t, s.backend.callLog(), "POST /shipping")
}

func TestCLI_Usage(t *testing.T) {
	s := newSession(t, "", "")

	for _, args := range [][]string{
		{"bogus"},
		{"cart", "add"},
		{"cart", "qty", "x", "1"},
		{"wishlist", "add"},
		{"address", "edit"},
		{"products", "-category", "a", "-brand", "b"},
		{"login", "ada@example.com"},
	} {
		assert.ErrorIs(t, s.cli.run(context.Background(), args), errUsage, args)
	}
}
