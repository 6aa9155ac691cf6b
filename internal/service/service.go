// Package service maps each backend endpoint to one typed call. Services hold
// no state and never retry; transport errors reach the caller unchanged.
package service

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/transport"
)

// Doer is the transport contract the services consume.
type Doer interface {
	Do(ctx context.Context, ep transport.Endpoint, headers http.Header, body, out any) error
}

const idempotencyHeader = "Idempotency-Key"

var (
	epLogin  = transport.Endpoint{Method: http.MethodPost, Path: "/auth/login"}
	epLogout = transport.Endpoint{Method: http.MethodPost, Path: "/auth/logout", Auth: true}

	epGetCart        = transport.Endpoint{Method: http.MethodGet, Path: "/cart", Auth: true}
	epAddCartItem    = transport.Endpoint{Method: http.MethodPost, Path: "/cart/items", Auth: true}
	epUpdateCartItem = transport.Endpoint{Method: http.MethodPut, Path: "/cart/items/%d", Auth: true}
	epRemoveCartItem = transport.Endpoint{Method: http.MethodDelete, Path: "/cart/items/%d", Auth: true}
	epClearCart      = transport.Endpoint{Method: http.MethodDelete, Path: "/cart", Auth: true}

	epListProducts       = transport.Endpoint{Method: http.MethodGet, Path: "/products"}
	epGetProduct         = transport.Endpoint{Method: http.MethodGet, Path: "/products/%d"}
	epProductsByCategory = transport.Endpoint{Method: http.MethodGet, Path: "/products/category/%s"}
	epProductsByBrand    = transport.Endpoint{Method: http.MethodGet, Path: "/products/brand/%s"}

	epCreateOrder       = transport.Endpoint{Method: http.MethodPost, Path: "/orders", Auth: true}
	epGetOrder          = transport.Endpoint{Method: http.MethodGet, Path: "/orders/%d", Auth: true}
	epListOrders        = transport.Endpoint{Method: http.MethodGet, Path: "/orders", Auth: true}
	epUpdateOrderStatus = transport.Endpoint{Method: http.MethodPatch, Path: "/orders/%d/status", Auth: true}

	epListAddresses     = transport.Endpoint{Method: http.MethodGet, Path: "/shipping", Auth: true}
	epDefaultAddress    = transport.Endpoint{Method: http.MethodGet, Path: "/shipping/default", Auth: true}
	epCreateAddress     = transport.Endpoint{Method: http.MethodPost, Path: "/shipping", Auth: true}
	epUpdateAddress     = transport.Endpoint{Method: http.MethodPut, Path: "/shipping/%d", Auth: true}
	epDeleteAddress     = transport.Endpoint{Method: http.MethodDelete, Path: "/shipping/%d", Auth: true}
	epSetDefaultAddress = transport.Endpoint{Method: http.MethodPut, Path: "/shipping/%d/default", Auth: true}

	epGetWishList    = transport.Endpoint{Method: http.MethodGet, Path: "/wishlist", Auth: true}
	epAddWishList    = transport.Endpoint{Method: http.MethodPost, Path: "/wishlist/%d", Auth: true}
	epRemoveWishList = transport.Endpoint{Method: http.MethodDelete, Path: "/wishlist/%d", Auth: true}

	epPaymentConfig       = transport.Endpoint{Method: http.MethodGet, Path: "/payments/config", Auth: true}
	epCreateIntent        = transport.Endpoint{Method: http.MethodPost, Path: "/payments/intents", Auth: true}
	epConfirmIntent       = transport.Endpoint{Method: http.MethodPost, Path: "/payments/intents/%s/confirm", Auth: true}
	epCancelIntent        = transport.Endpoint{Method: http.MethodPost, Path: "/payments/intents/%s/cancel", Auth: true}
	epCreateCustomer      = transport.Endpoint{Method: http.MethodPost, Path: "/payments/customers", Auth: true}
	epCreatePaymentMethod = transport.Endpoint{Method: http.MethodPost, Path: "/payments/methods", Auth: true}
)
