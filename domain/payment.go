package domain

import (
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
)

type PaymentMethodKind string

const (
	PaymentMethodCard   PaymentMethodKind = "card"
	PaymentMethodWallet PaymentMethodKind = "wallet"
)

func (k PaymentMethodKind) Valid() bool {
	return k == PaymentMethodCard || k == PaymentMethodWallet
}

type PaymentConfig struct {
	PublishableKey string `json:"publishable_key"`
	MerchantName   string `json:"merchant_name"`
	Currency       string `json:"currency"`
}

// PaymentIntent is single use: once confirmed or cancelled it must not be presented again.
type PaymentIntent struct {
	ID               string          `json:"id"`
	ClientSecret     string          `json:"client_secret"`
	EphemeralKey     string          `json:"ephemeral_key,omitempty"`
	CustomerID       string          `json:"customer_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	OrderID          int64           `json:"order_id"`
	LastErrorCode    string          `json:"last_error_code,omitempty"`
	LastErrorMessage string          `json:"last_error_message,omitempty"`
}

// LogValue omits the client secret and the ephemeral key.
func (p PaymentIntent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", p.ID),
		slog.Int64("order_id", p.OrderID),
		slog.String("status", p.Status),
		slog.String("amount", p.Amount.String()),
		slog.String("currency", p.Currency),
	)
}

type PaymentIntentRequest struct {
	OrderID    int64           `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CustomerID string          `json:"customer_id,omitempty"`
}

type ConfirmIntentRequest struct {
	PaymentMethodID   string            `json:"payment_method_id,omitempty"`
	PaymentMethodType PaymentMethodKind `json:"payment_method_type"`
	ReturnURL         string            `json:"return_url,omitempty"`
}

type Customer struct {
	ID           string `json:"id"`
	EphemeralKey string `json:"ephemeral_key"`
}

type PaymentStatusKind string

const (
	PaymentIdle       PaymentStatusKind = "idle"
	PaymentPreparing  PaymentStatusKind = "preparing"
	PaymentReady      PaymentStatusKind = "ready"
	PaymentProcessing PaymentStatusKind = "processing"
	PaymentCompleted  PaymentStatusKind = "completed"
	PaymentFailed     PaymentStatusKind = "failed"
)

// PaymentStatus is the lifecycle of one payment attempt.
// ClientSecret is set only when ready, Order only when completed, Reason only when failed.
type PaymentStatus struct {
	Kind         PaymentStatusKind
	ClientSecret string
	Order        *Order
	Reason       string
}

func PaymentStatusIdle() PaymentStatus      { return PaymentStatus{Kind: PaymentIdle} }
func PaymentStatusPreparing() PaymentStatus { return PaymentStatus{Kind: PaymentPreparing} }
func PaymentStatusProcessing() PaymentStatus {
	return PaymentStatus{Kind: PaymentProcessing}
}

func PaymentStatusReady(clientSecret string) PaymentStatus {
	return PaymentStatus{Kind: PaymentReady, ClientSecret: clientSecret}
}

func PaymentStatusCompleted(order *Order) PaymentStatus {
	return PaymentStatus{Kind: PaymentCompleted, Order: order}
}

func PaymentStatusFailed(reason string) PaymentStatus {
	return PaymentStatus{Kind: PaymentFailed, Reason: reason}
}

// CanPay gates the pay action.
func (s PaymentStatus) CanPay() bool {
	return s.Kind == PaymentIdle || s.Kind == PaymentReady || s.Kind == PaymentFailed
}

func (s PaymentStatus) String() string {
	switch s.Kind {
	case PaymentFailed:
		return string(s.Kind) + "(" + s.Reason + ")"
	case PaymentCompleted:
		if s.Order != nil {
			return string(s.Kind) + "(order " + strconv.FormatInt(s.Order.ID, 10) + ")"
		}
	}
	return string(s.Kind)
}
