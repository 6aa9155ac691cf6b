// Package checkout drives one checkout from shipping info to confirmation.
//
// Every action and every payment callback runs on a dispatch.Queue, so the
// step, payment and message streams have a single writer and observers see
// changes in the order they happened. Waiting for the hosted confirmation
// happens off the queue; its result is posted back and discarded if the
// checkout moved on in the meantime.
package checkout

import (
	"context"
	"log/slog"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/dispatch"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type Orders interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

type Addresses interface {
	Load(ctx context.Context) ([]domain.ShippingDetails, error)
	Default(ctx context.Context) (*domain.ShippingDetails, error)
	Create(ctx context.Context, d domain.ShippingDetails) (*domain.ShippingDetails, error)
}

type Session interface {
	CurrentUser() (*domain.User, bool)
}

type Cart interface {
	Current() *domain.Cart
	Load(ctx context.Context) (*domain.Cart, error)
}

type Payments interface {
	Config(ctx context.Context) (*domain.PaymentConfig, error)
	Customer(ctx context.Context, email string) (*domain.Customer, error)
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
	OrderIDForIntent(intentID string) (int64, bool)
	NewSheet(cfg *domain.PaymentConfig, intent *domain.PaymentIntent) *payment.Sheet
	PresentConfirmationUI(ctx context.Context, sheet *payment.Sheet) <-chan payment.Result
	ConfirmWithWallet(ctx context.Context, intentID string) <-chan payment.Result
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

type Outcomes interface {
	CheckoutOutcome(outcome string)
}

type Deps struct {
	Queue     *dispatch.Queue
	Orders    Orders
	Addresses Addresses
	Session   Session
	Cart      Cart
	Payments  Payments
	Publisher Publisher
	Outcomes  Outcomes
	Logger    *slog.Logger
}

type Checkout struct {
	queue     *dispatch.Queue
	orders    Orders
	addresses Addresses
	session   Session
	cart      Cart
	payments  Payments
	publisher Publisher
	outcomes  Outcomes
	logger    *slog.Logger

	step    *store.Cell[domain.CheckoutStep]
	status  *store.Cell[domain.PaymentStatus]
	message *store.Cell[string]

	// Owned by the queue goroutine.
	known      []domain.ShippingDetails
	listed     bool
	selected   *domain.ShippingDetails
	resolved   *domain.ShippingDetails
	addingNew  bool
	form       domain.ShippingForm
	method     domain.PaymentMethodKind
	order      *domain.Order
	orderKey   string
	config     *domain.PaymentConfig
	intent     *domain.PaymentIntent
	generation int
	stopWait   context.CancelFunc
}

func New(d Deps) *Checkout {
	c := &Checkout{
		queue:     d.Queue,
		orders:    d.Orders,
		addresses: d.Addresses,
		session:   d.Session,
		cart:      d.Cart,
		payments:  d.Payments,
		publisher: d.Publisher,
		outcomes:  d.Outcomes,
		logger:    d.Logger,
		step:      store.NewCell(domain.CheckoutStepShippingInfo),
		status:    store.NewCell(domain.PaymentStatusIdle()),
		message:   store.NewCell(""),
	}
	if c.logger == nil {
		c.logger = logging.New("checkout")
	}
	return c
}

func (c *Checkout) Step() store.Observable[domain.CheckoutStep] { return c.step }

func (c *Checkout) PaymentStatus() store.Observable[domain.PaymentStatus] { return c.status }

// Message is the latest user-facing notice; empty when there is nothing to say.
func (c *Checkout) Message() store.Observable[string] { return c.message }

// Snapshot is a copy of everything that decides what the checkout does next.
type Snapshot struct {
	Step      domain.CheckoutStep
	Payment   domain.PaymentStatus
	Message   string
	Addresses []domain.ShippingDetails
	Selected  *domain.ShippingDetails
	Resolved  *domain.ShippingDetails
	AddingNew bool
	Form      domain.ShippingForm
	Method    domain.PaymentMethodKind
	Order     *domain.Order
}

func (c *Checkout) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := c.run(ctx, func(context.Context) error {
		s = Snapshot{
			Step:      c.step.Get(),
			Payment:   c.status.Get(),
			Message:   c.message.Get(),
			Addresses: append([]domain.ShippingDetails(nil), c.known...),
			Selected:  clone(c.selected),
			Resolved:  clone(c.resolved),
			AddingNew: c.addingNew,
			Form:      c.form,
			Method:    c.method,
			Order:     clone(c.order),
		}
		return nil
	})
	return s, err
}

// run executes fn on the queue and returns its error.
func (c *Checkout) run(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	if qerr := c.queue.Do(ctx, func() { err = fn(ctx) }); qerr != nil {
		return qerr
	}
	return err
}

func (c *Checkout) moveTo(to domain.CheckoutStep) error {
	from := c.step.Get()
	if !domain.CanTransitionTo(from, to) {
		c.logger.Warn("illegal checkout transition", "from", from.String(), "to", to.String())
		return ErrIllegalTransition
	}
	c.logger.Debug("checkout step", "from", from.String(), "to", to.String())
	c.step.Set(to)
	return nil
}

func (c *Checkout) notify(msg string) {
	c.message.Set(msg)
}

func (c *Checkout) outcome(o string) {
	if c.outcomes != nil {
		c.outcomes.CheckoutOutcome(o)
	}
}

func (c *Checkout) publish(ctx context.Context, ev events.Event) {
	if c.publisher != nil {
		c.publisher.Publish(ctx, ev)
	}
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
