// Package payment adapts the payment processor: card tokenization with a
// server fallback, intent lifecycle calls mapped to payment errors, and the
// hosted confirmation step delivered as a single terminal Result.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/logging"
)

// Backend is the server-proxied side of the processor.
type Backend interface {
	GetConfig(ctx context.Context) (*domain.PaymentConfig, error)
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string, req domain.ConfirmIntentRequest) (*domain.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
	CreateCustomer(ctx context.Context, email string) (*domain.Customer, error)
	CreatePaymentMethod(ctx context.Context, card domain.CardParams) (string, error)
}

// Presenter shows the hosted confirmation UI for one intent and blocks until
// the user finishes, cancels, or ctx ends.
type Presenter interface {
	Present(ctx context.Context, sheet *Sheet) SheetResult
}

type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeCanceled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "failed"
	}
}

type SheetResult struct {
	Outcome Outcome
	Err     error
}

// Result is the terminal value of one confirmation attempt.
type Result struct {
	Outcome  Outcome
	IntentID string
	OrderID  int64
	Err      error
}

// Sheet is what the hosted confirmation UI is built from.
type Sheet struct {
	IntentID       string
	ClientSecret   string
	PublishableKey string
	MerchantName   string
	Amount         decimal.Decimal
	Currency       string
	CustomerID     string
	EphemeralKey   string

	adapter *Adapter
}

// Confirm tokenizes card and confirms the sheet's intent with it.
func (s *Sheet) Confirm(ctx context.Context, card domain.CardDetails) error {
	if s.adapter == nil {
		return NewError(KindConfirmationFailed, errors.New("sheet is not bound to an adapter"))
	}
	id, err := s.adapter.CreatePaymentMethod(ctx, card)
	if err != nil {
		return err
	}
	_, err = s.adapter.ConfirmPaymentIntent(ctx, s.IntentID, domain.ConfirmIntentRequest{
		PaymentMethodID:   id,
		PaymentMethodType: domain.PaymentMethodCard,
		ReturnURL:         s.adapter.returnURL,
	})
	return err
}

func (s *Sheet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("intent_id", s.IntentID),
		slog.String("merchant", s.MerchantName),
		slog.String("amount", s.Amount.String()),
		slog.String("currency", s.Currency),
	)
}

type Adapter struct {
	sdk       Tokenizer
	backend   Backend
	presenter Presenter
	returnURL string
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	orders    map[string]int64
	presented map[string]bool
	customers map[string]*domain.Customer
}

type Option func(*Adapter)

// WithTokenizer sets the in-process SDK tried before the server fallback.
func WithTokenizer(t Tokenizer) Option {
	return func(a *Adapter) { a.sdk = t }
}

func WithPresenter(p Presenter) Option {
	return func(a *Adapter) { a.presenter = p }
}

func WithReturnURL(u string) Option {
	return func(a *Adapter) { a.returnURL = u }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func NewAdapter(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend:   backend,
		logger:    logging.New("payment"),
		now:       time.Now,
		orders:    make(map[string]int64),
		presented: make(map[string]bool),
		customers: make(map[string]*domain.Customer),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Config(ctx context.Context) (*domain.PaymentConfig, error) {
	cfg, err := a.backend.GetConfig(ctx)
	if err != nil {
		return nil, NewError(KindIntentCreationFailed, err)
	}
	return cfg, nil
}

// Customer returns the processor customer for email, creating it once per process.
func (a *Adapter) Customer(ctx context.Context, email string) (*domain.Customer, error) {
	a.mu.Lock()
	c, ok := a.customers[email]
	a.mu.Unlock()
	if ok {
		return c, nil
	}
	c, err := a.backend.CreateCustomer(ctx, email)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.customers[email] = c
	a.mu.Unlock()
	return c, nil
}

// CreatePaymentMethod validates card and tokenizes it through the SDK, falling
// back to the server on any SDK failure.
func (a *Adapter) CreatePaymentMethod(ctx context.Context, card domain.CardDetails) (string, error) {
	params, err := ValidateCard(card, a.now())
	if err != nil {
		a.logger.Info("card rejected locally", "card", card, "reason", err)
		return "", err
	}

	if a.sdk != nil {
		id, err := a.sdk.CreatePaymentMethod(ctx, params)
		if err == nil {
			return id, nil
		}
		a.logger.Warn("sdk tokenization failed, falling back to server", "card", params, "error", err)
	}

	id, err := a.backend.CreatePaymentMethod(ctx, params)
	if err != nil {
		a.logger.Error("server tokenization failed", "card", params, "error", err)
		return "", NewError(KindPaymentMethodCreationFailed, err)
	}
	return id, nil
}

// CreatePaymentIntent creates an intent for req.OrderID and records the correlation.
func (a *Adapter) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	intent, err := a.backend.CreatePaymentIntent(ctx, req)
	if err != nil {
		return nil, NewError(KindIntentCreationFailed, err)
	}
	if intent.OrderID == 0 {
		intent.OrderID = req.OrderID
	}
	a.mu.Lock()
	a.orders[intent.ID] = intent.OrderID
	a.mu.Unlock()
	a.logger.Info("payment intent created", "intent", intent)
	return intent, nil
}

// ConfirmPaymentIntent confirms and maps any non-success intent status to an *Error.
func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, intentID string, req domain.ConfirmIntentRequest) (*domain.PaymentIntent, error) {
	intent, err := a.backend.ConfirmPaymentIntent(ctx, intentID, req)
	if err != nil {
		return nil, NewError(KindConfirmationFailed, err)
	}
	if err := statusError(intent); err != nil {
		a.logger.Info("payment intent not confirmed", "intent", intent, "reason", err)
		return intent, err
	}
	return intent, nil
}

func (a *Adapter) CancelPaymentIntent(ctx context.Context, intentID string) error {
	if err := a.backend.CancelPaymentIntent(ctx, intentID); err != nil {
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}
	return nil
}

func (a *Adapter) OrderIDForIntent(intentID string) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.orders[intentID]
	return id, ok
}

func (a *Adapter) NewSheet(cfg *domain.PaymentConfig, intent *domain.PaymentIntent) *Sheet {
	s := &Sheet{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		CustomerID:   intent.CustomerID,
		EphemeralKey: intent.EphemeralKey,
		adapter:      a,
	}
	if cfg != nil {
		s.PublishableKey = cfg.PublishableKey
		s.MerchantName = cfg.MerchantName
		if s.Currency == "" {
			s.Currency = cfg.Currency
		}
	}
	return s
}

// PresentConfirmationUI runs the presenter for sheet and delivers exactly one
// Result, then closes the channel. An intent is presented at most once.
func (a *Adapter) PresentConfirmationUI(ctx context.Context, sheet *Sheet) <-chan Result {
	out := make(chan Result, 1)
	if a.presenter == nil {
		out <- a.result(sheet.IntentID, OutcomeFailed, NewError(KindConfirmationFailed, errors.New("no confirmation UI available")))
		close(out)
		return out
	}
	if !a.claim(sheet.IntentID) {
		out <- a.result(sheet.IntentID, OutcomeFailed, NewError(KindConfirmationFailed, errors.New("payment intent already presented")))
		close(out)
		return out
	}
	a.logger.Info("presenting confirmation", "sheet", sheet)

	go func() {
		defer close(out)
		done := make(chan SheetResult, 1)
		go func() { done <- a.presenter.Present(ctx, sheet) }()
		select {
		case res := <-done:
			out <- a.result(sheet.IntentID, res.Outcome, res.Err)
		case <-ctx.Done():
			out <- a.result(sheet.IntentID, OutcomeCanceled, nil)
		}
	}()
	return out
}

// ConfirmWithWallet confirms intentID with the account's wallet and delivers one Result.
func (a *Adapter) ConfirmWithWallet(ctx context.Context, intentID string) <-chan Result {
	out := make(chan Result, 1)
	if !a.claim(intentID) {
		out <- a.result(intentID, OutcomeFailed, NewError(KindConfirmationFailed, errors.New("payment intent already presented")))
		close(out)
		return out
	}

	go func() {
		defer close(out)
		_, err := a.ConfirmPaymentIntent(ctx, intentID, domain.ConfirmIntentRequest{
			PaymentMethodType: domain.PaymentMethodWallet,
			ReturnURL:         a.returnURL,
		})
		switch {
		case err == nil:
			out <- a.result(intentID, OutcomeSucceeded, nil)
		case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
			out <- a.result(intentID, OutcomeCanceled, nil)
		default:
			out <- a.result(intentID, OutcomeFailed, err)
		}
	}()
	return out
}

func (a *Adapter) claim(intentID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.presented[intentID] {
		return false
	}
	a.presented[intentID] = true
	return true
}

func (a *Adapter) result(intentID string, outcome Outcome, err error) Result {
	if outcome == OutcomeFailed {
		var pe *Error
		switch {
		case err == nil:
			err = NewError(KindGeneric, nil)
		case !errors.As(err, &pe):
			err = NewError(KindGeneric, err)
		}
	} else {
		err = nil
	}
	orderID, _ := a.OrderIDForIntent(intentID)
	a.logger.Info("confirmation finished", "intent_id", intentID, "order_id", orderID, "outcome", outcome.String())
	return Result{Outcome: outcome, IntentID: intentID, OrderID: orderID, Err: err}
}

func statusError(intent *domain.PaymentIntent) error {
	switch intent.Status {
	case "succeeded", "processing", "requires_capture":
		return nil
	case "requires_action":
		return NewError(KindAuthenticationRequired, nil)
	case "canceled":
		return NewError(KindCancelled, nil)
	case "requires_payment_method":
		if intent.LastErrorCode != "" {
			return FromDeclineCode(intent.LastErrorCode, intent.LastErrorMessage)
		}
		return NewError(KindCardDeclined, nil)
	default:
		return NewError(KindConfirmationFailed, fmt.Errorf("unexpected intent status %q", intent.Status))
	}
}
