package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
)

// callbackTimeout bounds the best-effort calls made when a payment result arrives.
const callbackTimeout = 30 * time.Second

// processPayment runs review -> processing: order, intent, confirmation.
func (c *Checkout) processPayment(ctx context.Context) error {
	user, ok := c.session.CurrentUser()
	if !ok {
		c.notify(msgNotSignedIn)
		return ErrNotSignedIn
	}
	cart := c.cart.Current()
	if cart == nil {
		var err error
		if cart, err = c.cart.Load(ctx); err != nil {
			c.notify(userMessage(err))
			return fmt.Errorf("failed to load cart: %w", err)
		}
	}
	if cart.IsEmpty() {
		c.notify(msgEmptyCart)
		return ErrEmptyCart
	}
	if c.resolved == nil || !c.resolved.Persisted() {
		addr, err := c.resolveAddress(ctx)
		if err != nil {
			return err
		}
		c.resolved = addr
	}

	if err := c.moveTo(domain.CheckoutStepProcessing); err != nil {
		return err
	}
	c.notify("")

	order, err := c.ensureOrder(ctx, user)
	if err != nil {
		c.fail(userMessage(err))
		c.outcome(metrics.OutcomeOrderFailed)
		return err
	}

	if err := c.preparePayment(ctx, user, order, cart); err != nil {
		c.fail(userMessage(err))
		c.outcome(metrics.OutcomeFailed)
		return err
	}
	c.confirm(ctx)
	return nil
}

// ensureOrder returns the held order when it is not paid yet, else creates one.
// The idempotency key lives until the checkout resets, so a create that failed
// in flight is not doubled by the retry.
func (c *Checkout) ensureOrder(ctx context.Context, user *domain.User) (*domain.Order, error) {
	logger := logging.FromCtx(ctx, c.logger)
	if c.order != nil && c.order.Status != domain.OrderStatusPaid {
		if c.order.Status == domain.OrderStatusCancelled {
			updated, err := c.orders.UpdateStatus(ctx, c.order.ID, domain.OrderStatusPending)
			if err != nil {
				logger.Warn("failed to reopen cancelled order", "order_id", c.order.ID, "error", err)
			} else {
				c.order = updated
			}
		}
		logger.Info("reusing held order", "order_id", c.order.ID, "status", c.order.Status.String())
		return c.order, nil
	}

	if c.orderKey == "" {
		c.orderKey = uuid.NewString()
	}
	order, err := c.orders.CreateOrder(ctx, domain.CreateOrderRequest{
		UserID:            user.ID,
		ShippingAddressID: *c.resolved.ID,
		PaymentMethod:     string(c.method),
	}, c.orderKey)
	if order != nil {
		c.order = order
	}
	if err != nil {
		if order != nil {
			logger.Warn("order created but not reloaded", "order_id", order.ID, "error", err)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	logger.Info("order created", "order_id", order.ID, "total", order.TotalAmount.String())
	return order, nil
}

// preparePayment fetches the processor config and creates the intent.
// It is a no-op while a preparation is in flight or an intent is held.
func (c *Checkout) preparePayment(ctx context.Context, user *domain.User, order *domain.Order, cart *domain.Cart) error {
	if c.status.Get().Kind == domain.PaymentPreparing || c.intent != nil {
		logging.FromCtx(ctx, c.logger).Debug("payment already prepared", "order_id", order.ID)
		return nil
	}
	c.status.Set(domain.PaymentStatusPreparing())

	cfg, err := c.payments.Config(ctx)
	if err != nil {
		return err
	}
	c.config = cfg

	amount := order.TotalAmount
	if amount.IsZero() {
		amount = cart.Total()
	}
	req := domain.PaymentIntentRequest{OrderID: order.ID, Amount: amount, Currency: cfg.Currency}
	if user.Email != "" {
		cust, err := c.payments.Customer(ctx, user.Email)
		if err != nil {
			logging.FromCtx(ctx, c.logger).Warn("paying without a processor customer", "error", err)
		} else {
			req.CustomerID = cust.ID
		}
	}

	intent, err := c.payments.CreatePaymentIntent(ctx, req)
	if err != nil {
		return err
	}
	c.intent = intent
	c.status.Set(domain.PaymentStatusReady(intent.ClientSecret))
	return nil
}

// confirm hands the intent to the processor UI and waits for its result off the queue.
func (c *Checkout) confirm(ctx context.Context) {
	if c.intent == nil {
		return
	}
	c.status.Set(domain.PaymentStatusProcessing())
	c.generation++
	gen := c.generation

	waitCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.stopWait = cancel

	var results <-chan payment.Result
	switch c.method {
	case domain.PaymentMethodWallet:
		results = c.payments.ConfirmWithWallet(waitCtx, c.intent.ID)
	default:
		results = c.payments.PresentConfirmationUI(waitCtx, c.payments.NewSheet(c.config, c.intent))
	}
	intentID := c.intent.ID

	go func() {
		defer cancel()
		res, ok := <-results
		if !ok {
			res = payment.Result{Outcome: payment.OutcomeFailed, IntentID: intentID, Err: ErrConfirmationClosed}
		}
		if !c.queue.Post(func() { c.handleResult(waitCtx, gen, res) }) {
			logging.FromCtx(waitCtx, c.logger).Warn("payment result dropped, queue closed", "intent_id", intentID)
		}
	}()
}

// handleResult applies a confirmation result unless the checkout moved on since.
// parent only lends its values, the span among them, to the follow-up calls.
func (c *Checkout) handleResult(parent context.Context, gen int, res payment.Result) {
	logger := logging.FromCtx(parent, c.logger)
	if gen != c.generation {
		logger.Info("discarding stale payment result", "intent_id", res.IntentID, "outcome", res.Outcome.String())
		return
	}
	c.stopWait = nil

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), callbackTimeout)
	defer cancel()

	orderID := c.orderFor(res)
	switch res.Outcome {
	case payment.OutcomeSucceeded:
		order := c.setOrderStatus(ctx, orderID, domain.OrderStatusPaid)
		c.status.Set(domain.PaymentStatusCompleted(order))
		c.notify("")
		_ = c.moveTo(domain.CheckoutStepConfirmation)
		c.publish(ctx, events.Event{Kind: events.PaymentCompleted, OrderID: orderID, IntentID: res.IntentID})
		c.outcome(metrics.OutcomePaid)

	case payment.OutcomeCanceled:
		c.setOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
		c.intent = nil
		c.status.Set(domain.PaymentStatusIdle())
		_ = c.moveTo(domain.CheckoutStepReview)
		c.notify(msgPaymentCancelled)
		c.publish(ctx, events.Event{Kind: events.PaymentCancelled, OrderID: orderID, IntentID: res.IntentID})
		c.outcome(metrics.OutcomeCancelled)

	default:
		err := res.Err
		if err == nil {
			err = payment.ErrGeneric
		}
		c.intent = nil
		c.fail(userMessage(err))
		c.publish(ctx, events.Event{Kind: events.PaymentFailed, OrderID: orderID, IntentID: res.IntentID, Reason: err.Error()})
		c.outcome(metrics.OutcomeFailed)
	}
	logger.Info("payment finished", "order_id", orderID, "intent_id", res.IntentID, "outcome", res.Outcome.String())
}

func (c *Checkout) orderFor(res payment.Result) int64 {
	if res.OrderID != 0 {
		return res.OrderID
	}
	if id, ok := c.payments.OrderIDForIntent(res.IntentID); ok {
		return id
	}
	if c.order != nil {
		return c.order.ID
	}
	return 0
}

// setOrderStatus is best effort: a failure is logged and the held order is
// still marked locally so a later retry sees the intended status.
func (c *Checkout) setOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) *domain.Order {
	if id == 0 {
		return c.order
	}
	updated, err := c.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		logging.FromCtx(ctx, c.logger).Warn("failed to update order status", "order_id", id, "status", status.String(), "error", err)
		if c.order != nil && c.order.ID == id {
			local := *c.order
			local.Status = status
			c.order = &local
		}
		return c.order
	}
	if c.order == nil || c.order.ID == id {
		c.order = updated
	}
	return updated
}

// fail puts the checkout in the error step with msg shown.
func (c *Checkout) fail(msg string) {
	c.status.Set(domain.PaymentStatusFailed(msg))
	c.notify(msg)
	_ = c.moveTo(domain.CheckoutStepError)
}
