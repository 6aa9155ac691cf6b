package payment

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/domain"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	mu sync.Mutex

	config     *domain.PaymentConfig
	configErr  error
	intent     *domain.PaymentIntent
	intentErr  error
	confirmed  *domain.PaymentIntent
	confirmErr error
	cancelErr  error
	methodID   string
	methodErr  error

	confirmReqs  []domain.ConfirmIntentRequest
	methodCalls  int
	cancelled    []string
	customerReqs []string
}

func (m *MockBackend) GetConfig(context.Context) (*domain.PaymentConfig, error) {
	return m.config, m.configErr
}

func (m *MockBackend) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	cp := *m.intent
	return &cp, nil
}

func (m *MockBackend) ConfirmPaymentIntent(_ context.Context, _ string, req domain.ConfirmIntentRequest) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	m.confirmReqs = append(m.confirmReqs, req)
	m.mu.Unlock()
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	cp := *m.confirmed
	return &cp, nil
}

func (m *MockBackend) CancelPaymentIntent(_ context.Context, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, intentID)
	return m.cancelErr
}

func (m *MockBackend) CreateCustomer(_ context.Context, email string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerReqs = append(m.customerReqs, email)
	return &domain.Customer{ID: "cus_" + email}, nil
}

func (m *MockBackend) CreatePaymentMethod(context.Context, domain.CardParams) (string, error) {
	m.mu.Lock()
	m.methodCalls++
	m.mu.Unlock()
	return m.methodID, m.methodErr
}

// MockTokenizer implements Tokenizer for testing
type MockTokenizer struct {
	id    string
	err   error
	calls int
	last  domain.CardParams
}

func (m *MockTokenizer) CreatePaymentMethod(_ context.Context, card domain.CardParams) (string, error) {
	m.calls++
	m.last = card
	return m.id, m.err
}

// MockPresenter implements Presenter for testing.
// With release set it blocks until release is closed or ctx ends.
type MockPresenter struct {
	result  SheetResult
	release chan struct{}
	card    *domain.CardDetails

	mu     sync.Mutex
	sheets []*Sheet
}

func (m *MockPresenter) Present(ctx context.Context, sheet *Sheet) SheetResult {
	m.mu.Lock()
	m.sheets = append(m.sheets, sheet)
	m.mu.Unlock()
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return SheetResult{Outcome: OutcomeCanceled}
		}
	}
	if m.card != nil {
		if err := sheet.Confirm(ctx, *m.card); err != nil {
			return SheetResult{Outcome: OutcomeFailed, Err: err}
		}
		return SheetResult{Outcome: OutcomeSucceeded}
	}
	return m.result
}
