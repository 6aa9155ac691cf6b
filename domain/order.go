package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is free-form on the wire; these are the values the client writes.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	CreatedAt         time.Time       `json:"created_at"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	Items             []OrderItem     `json:"items"`
	ShippingAddressID *int64          `json:"shipping_address_id,omitempty"`
	PaymentIntentID   *string         `json:"payment_intent_id,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
}

type CreateOrderRequest struct {
	UserID            int64  `json:"user_id"`
	ShippingAddressID int64  `json:"shipping_address_id"`
	PaymentMethod     string `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
