package checkout

import (
	"context"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/metrics"
)

// Cancel abandons the checkout. Any held intent is cancelled and any unpaid
// order is marked cancelled, both best effort, then everything resets to
// shipping info. A confirmed checkout cannot be cancelled.
func (c *Checkout) Cancel(ctx context.Context) error {
	return c.run(ctx, func(ctx context.Context) error {
		if c.step.Get() == domain.CheckoutStepConfirmation {
			return ErrCheckoutFinished
		}

		// A result still in flight belongs to the abandoned attempt.
		c.generation++
		if c.stopWait != nil {
			c.stopWait()
			c.stopWait = nil
		}

		logger := logging.FromCtx(ctx, c.logger)
		var orderID int64
		if c.intent != nil {
			if err := c.payments.CancelPaymentIntent(ctx, c.intent.ID); err != nil {
				logger.Warn("failed to cancel payment intent", "intent_id", c.intent.ID, "error", err)
			}
		}
		if c.order != nil {
			orderID = c.order.ID
			if c.order.Status != domain.OrderStatusCancelled {
				if _, err := c.orders.UpdateStatus(ctx, c.order.ID, domain.OrderStatusCancelled); err != nil {
					logger.Warn("failed to cancel order", "order_id", c.order.ID, "error", err)
				}
			}
		}

		started := c.step.Get() != domain.CheckoutStepShippingInfo || c.order != nil
		c.reset()
		if started {
			c.publish(ctx, events.Event{Kind: events.CheckoutCancelled, OrderID: orderID})
			c.outcome(metrics.OutcomeAborted)
		}
		logger.Info("checkout cancelled", "order_id", orderID)
		return nil
	})
}

func (c *Checkout) reset() {
	c.selected = nil
	c.resolved = nil
	noAddresses := c.listed && len(c.known) == 0
	c.addingNew = noAddresses
	c.form = domain.NewShippingForm(domain.ShippingDetails{IsDefault: noAddresses})
	c.method = ""
	c.order = nil
	c.orderKey = ""
	c.config = nil
	c.intent = nil
	c.status.Set(domain.PaymentStatusIdle())
	c.notify("")
	c.step.Set(domain.CheckoutStepShippingInfo)
}
