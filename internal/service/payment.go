package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
)

type createCustomerRequest struct {
	Email string `json:"email"`
}

type paymentMethodResponse struct {
	ID string `json:"id"`
}

// PaymentService talks to the backend's payment proxy, never to the processor directly.
type PaymentService struct {
	client Doer
}

func NewPaymentService(client Doer) *PaymentService {
	return &PaymentService{client: client}
}

func (s *PaymentService) GetConfig(ctx context.Context) (*domain.PaymentConfig, error) {
	var cfg domain.PaymentConfig
	if err := s.client.Do(ctx, epPaymentConfig, nil, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to get payment config: %w", err)
	}
	return &cfg, nil
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	if err := s.client.Do(ctx, epCreateIntent, nil, req, &intent); err != nil {
		return nil, fmt.Errorf("failed to create payment intent for order %d: %w", req.OrderID, err)
	}
	return &intent, nil
}

func (s *PaymentService) ConfirmPaymentIntent(ctx context.Context, intentID string, req domain.ConfirmIntentRequest) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	if err := s.client.Do(ctx, epConfirmIntent.With(intentID), nil, req, &intent); err != nil {
		return nil, fmt.Errorf("failed to confirm payment intent %s: %w", intentID, err)
	}
	return &intent, nil
}

func (s *PaymentService) CancelPaymentIntent(ctx context.Context, intentID string) error {
	if err := s.client.Do(ctx, epCancelIntent.With(intentID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to cancel payment intent %s: %w", intentID, err)
	}
	return nil
}

func (s *PaymentService) CreateCustomer(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	if err := s.client.Do(ctx, epCreateCustomer, nil, createCustomerRequest{Email: email}, &c); err != nil {
		return nil, fmt.Errorf("failed to create payment customer: %w", err)
	}
	return &c, nil
}

// CreatePaymentMethod tokenizes a card through the backend.
func (s *PaymentService) CreatePaymentMethod(ctx context.Context, card domain.CardParams) (string, error) {
	var resp paymentMethodResponse
	if err := s.client.Do(ctx, epCreatePaymentMethod, nil, card, &resp); err != nil {
		return "", fmt.Errorf("failed to create payment method: %w", err)
	}
	return resp.ID, nil
}
