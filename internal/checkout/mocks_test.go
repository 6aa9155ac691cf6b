package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

// MockOrders implements Orders for testing
type MockOrders struct {
	mu        sync.Mutex
	createErr error
	updateErr error
	nextID    int64
	total     decimal.Decimal

	creates  []string
	updates  []domain.OrderStatus
	statuses map[int64]domain.OrderStatus
}

func NewMockOrders() *MockOrders {
	return &MockOrders{nextID: 100, total: decimal.NewFromInt(40), statuses: map[int64]domain.OrderStatus{}}
}

func (m *MockOrders) CreateOrder(_ context.Context, req domain.CreateOrderRequest, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, key)
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	m.statuses[m.nextID] = domain.OrderStatusPending
	addr := req.ShippingAddressID
	return &domain.Order{
		ID:                m.nextID,
		UserID:            req.UserID,
		TotalAmount:       m.total,
		Status:            domain.OrderStatusPending,
		ShippingAddressID: &addr,
		PaymentMethod:     req.PaymentMethod,
	}, nil
}

func (m *MockOrders) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, status)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.statuses[id] = status
	return &domain.Order{ID: id, TotalAmount: m.total, Status: status}, nil
}

func (m *MockOrders) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creates)
}

func (m *MockOrders) statusOf(id int64) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[id]
}

func (m *MockOrders) updateLog() []domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderStatus(nil), m.updates...)
}

// MockOrderBackend implements repository.OrderBackend for testing
type MockOrderBackend struct {
	mu          sync.Mutex
	orders      map[int64]*domain.Order
	getFailures int
	creates     int
}

func (m *MockOrderBackend) CreateOrder(_ context.Context, req domain.CreateOrderRequest, _ string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.orders == nil {
		m.orders = map[int64]*domain.Order{}
	}
	o := &domain.Order{ID: int64(m.creates), UserID: req.UserID, TotalAmount: decimal.NewFromInt(40), Status: domain.OrderStatusPending}
	m.orders[o.ID] = o
	c := *o
	return &c, nil
}

func (m *MockOrderBackend) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getFailures > 0 {
		m.getFailures--
		return nil, transport.ErrServerError
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, transport.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (m *MockOrderBackend) ListOrders(context.Context) ([]domain.Order, error) {
	return nil, nil
}

func (m *MockOrderBackend) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, transport.ErrNotFound
	}
	o.Status = status
	c := *o
	return &c, nil
}

func (m *MockOrderBackend) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

// MockAddresses implements Addresses for testing
type MockAddresses struct {
	mu         sync.Mutex
	list       []domain.ShippingDetails
	def        *domain.ShippingDetails
	loadErr    error
	defaultErr error
	nextID     int64

	loads    int
	defaults int
	created  []domain.ShippingDetails
}

func (m *MockAddresses) Load(context.Context) ([]domain.ShippingDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.ShippingDetails(nil), m.list...), nil
}

func (m *MockAddresses) Default(context.Context) (*domain.ShippingDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults++
	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.def == nil {
		return nil, nil
	}
	d := *m.def
	return &d, nil
}

func (m *MockAddresses) Create(_ context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := 500 + m.nextID
	d.ID = &id
	m.created = append(m.created, d)
	m.list = append(m.list, d)
	return &d, nil
}

func (m *MockAddresses) calls() (loads, defaults, created int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.defaults, len(m.created)
}

// MockSession implements Session for testing
type MockSession struct {
	user *domain.User
}

func (m *MockSession) CurrentUser() (*domain.User, bool) {
	if m.user == nil {
		return nil, false
	}
	u := *m.user
	return &u, true
}

// MockCart implements Cart for testing
type MockCart struct {
	cart *domain.Cart
}

func (m *MockCart) Current() *domain.Cart { return m.cart }

func (m *MockCart) Load(context.Context) (*domain.Cart, error) {
	if m.cart == nil {
		return &domain.Cart{}, nil
	}
	return m.cart, nil
}

// MockPayments implements Payments for testing. Each presentation waits for
// a value on results, or reports canceled when its context ends.
type MockPayments struct {
	mu        sync.Mutex
	configErr error
	intentErr error
	cancelErr error
	intents   int
	orders    map[string]int64

	intentReqs []domain.PaymentIntentRequest
	cancelled  []string
	presented  []string
	wallet     []string

	results chan payment.Result
}

func NewMockPayments() *MockPayments {
	return &MockPayments{orders: map[string]int64{}, results: make(chan payment.Result)}
}

func (m *MockPayments) Config(context.Context) (*domain.PaymentConfig, error) {
	if m.configErr != nil {
		return nil, m.configErr
	}
	return &domain.PaymentConfig{PublishableKey: "pk_test", MerchantName: "Shop", Currency: "usd"}, nil
}

func (m *MockPayments) Customer(_ context.Context, email string) (*domain.Customer, error) {
	return &domain.Customer{ID: "cus_" + email}, nil
}

func (m *MockPayments) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentReqs = append(m.intentReqs, req)
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	m.intents++
	id := fmt.Sprintf("pi_%d", m.intents)
	m.orders[id] = req.OrderID
	return &domain.PaymentIntent{ID: id, ClientSecret: id + "_secret", Amount: req.Amount, Currency: req.Currency, OrderID: req.OrderID}, nil
}

func (m *MockPayments) CancelPaymentIntent(_ context.Context, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, intentID)
	return m.cancelErr
}

func (m *MockPayments) OrderIDForIntent(intentID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.orders[intentID]
	return id, ok
}

func (m *MockPayments) NewSheet(cfg *domain.PaymentConfig, intent *domain.PaymentIntent) *payment.Sheet {
	return &payment.Sheet{IntentID: intent.ID, ClientSecret: intent.ClientSecret, MerchantName: cfg.MerchantName, Amount: intent.Amount}
}

func (m *MockPayments) PresentConfirmationUI(ctx context.Context, sheet *payment.Sheet) <-chan payment.Result {
	m.mu.Lock()
	m.presented = append(m.presented, sheet.IntentID)
	m.mu.Unlock()
	return m.await(ctx, sheet.IntentID)
}

func (m *MockPayments) ConfirmWithWallet(ctx context.Context, intentID string) <-chan payment.Result {
	m.mu.Lock()
	m.wallet = append(m.wallet, intentID)
	m.mu.Unlock()
	return m.await(ctx, intentID)
}

func (m *MockPayments) await(ctx context.Context, intentID string) <-chan payment.Result {
	out := make(chan payment.Result, 1)
	go func() {
		defer close(out)
		select {
		case r := <-m.results:
			r.IntentID = intentID
			out <- r
		case <-ctx.Done():
			out <- payment.Result{Outcome: payment.OutcomeCanceled, IntentID: intentID}
		}
	}()
	return out
}

func (m *MockPayments) snapshot() (intentReqs []domain.PaymentIntentRequest, presented, wallet, cancelled []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PaymentIntentRequest(nil), m.intentReqs...),
		append([]string(nil), m.presented...),
		append([]string(nil), m.wallet...),
		append([]string(nil), m.cancelled...)
}

// MockPublisher implements Publisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockPublisher) Publish(_ context.Context, ev events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *MockPublisher) kinds() []events.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Kind, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Kind)
	}
	return out
}

// MockOutcomes implements Outcomes for testing
type MockOutcomes struct {
	mu  sync.Mutex
	got []string
}

func (m *MockOutcomes) CheckoutOutcome(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, o)
}

func (m *MockOutcomes) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}
