package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/domain"
)

// LoadAddresses fetches the saved addresses. With none saved the checkout
// switches to entering a new one, marked as the default.
func (c *Checkout) LoadAddresses(ctx context.Context) error {
	return c.run(ctx, func(ctx context.Context) error {
		list, err := c.addresses.Load(ctx)
		if err != nil {
			c.notify(userMessage(err))
			return fmt.Errorf("failed to load addresses: %w", err)
		}
		c.known = list
		c.listed = true
		if len(list) == 0 {
			c.addingNew = true
			c.form = domain.NewShippingForm(domain.ShippingDetails{IsDefault: true})
		}
		return nil
	})
}

// StartNewAddress opens an empty address form; it takes priority over any selection.
func (c *Checkout) StartNewAddress(ctx context.Context) error {
	return c.run(ctx, func(context.Context) error {
		c.addingNew = true
		c.form = domain.NewShippingForm(domain.ShippingDetails{IsDefault: len(c.known) == 0})
		return nil
	})
}

func (c *Checkout) SetAddressForm(ctx context.Context, form domain.ShippingForm) error {
	return c.run(ctx, func(context.Context) error {
		c.addingNew = true
		c.form = form
		return nil
	})
}

// SelectAddress picks one of the loaded addresses and drops any open form.
func (c *Checkout) SelectAddress(ctx context.Context, id int64) error {
	return c.run(ctx, func(context.Context) error {
		for _, a := range c.known {
			if a.HasID(id) {
				c.selected = clone(&a)
				c.addingNew = false
				c.resolved = nil
				return nil
			}
		}
		return ErrUnknownAddress
	})
}

func (c *Checkout) SelectPaymentMethod(ctx context.Context, kind domain.PaymentMethodKind) error {
	return c.run(ctx, func(context.Context) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrNoPaymentMethod, kind)
		}
		c.method = kind
		return nil
	})
}

// Proceed advances from the current step. From review it starts the payment,
// which finishes asynchronously; watch Step for the outcome.
func (c *Checkout) Proceed(ctx context.Context) error {
	return c.run(ctx, func(ctx context.Context) error {
		switch step := c.step.Get(); step {
		case domain.CheckoutStepShippingInfo:
			addr, err := c.resolveAddress(ctx)
			if err != nil {
				return err
			}
			c.resolved = addr
			c.notify("")
			return c.moveTo(domain.CheckoutStepPaymentMethod)

		case domain.CheckoutStepPaymentMethod:
			if c.resolved == nil {
				addr, err := c.resolveAddress(ctx)
				if err != nil {
					return err
				}
				c.resolved = addr
			}
			if !c.method.Valid() {
				c.notify(msgNoPaymentMethod)
				return ErrNoPaymentMethod
			}
			c.notify("")
			return c.moveTo(domain.CheckoutStepReview)

		case domain.CheckoutStepReview:
			return c.processPayment(ctx)

		case domain.CheckoutStepProcessing:
			return ErrPaymentInProgress

		default:
			return ErrCheckoutFinished
		}
	})
}

// GoBack steps back from payment method or review and does nothing elsewhere.
func (c *Checkout) GoBack(ctx context.Context) error {
	return c.run(ctx, func(context.Context) error {
		prev, ok := c.step.Get().Previous()
		if !ok {
			return nil
		}
		c.notify("")
		return c.moveTo(prev)
	})
}

// Retry returns a failed checkout to review. The held order is kept, so the
// next Proceed pays for it instead of creating another.
func (c *Checkout) Retry(ctx context.Context) error {
	return c.run(ctx, func(context.Context) error {
		if err := c.moveTo(domain.CheckoutStepReview); err != nil {
			return err
		}
		c.status.Set(domain.PaymentStatusIdle())
		c.notify("")
		return nil
	})
}

// resolveAddress picks, in order: the open form (validated, then saved), the
// selected address, the account default.
func (c *Checkout) resolveAddress(ctx context.Context) (*domain.ShippingDetails, error) {
	if c.addingNew {
		if err := c.form.Validate(); err != nil {
			c.notify(msgInvalidAddress)
			return nil, err
		}
		created, err := c.addresses.Create(ctx, c.form.Details())
		if err != nil {
			c.notify(userMessage(err))
			return nil, fmt.Errorf("failed to save address: %w", err)
		}
		c.addingNew = false
		c.selected = clone(created)
		c.rememberAddress(*created)
		return clone(created), nil
	}

	if c.selected != nil {
		return clone(c.selected), nil
	}

	def, err := c.addresses.Default(ctx)
	if err != nil {
		c.notify(userMessage(err))
		return nil, fmt.Errorf("failed to get default address: %w", err)
	}
	if def == nil {
		c.notify(msgNoAddress)
		return nil, ErrNoAddress
	}
	return def, nil
}

func (c *Checkout) rememberAddress(a domain.ShippingDetails) {
	if a.ID == nil {
		return
	}
	for i := range c.known {
		if c.known[i].HasID(*a.ID) {
			c.known[i] = a
			return
		}
	}
	c.known = append(c.known, a)
}

// IsValidation reports whether err is a local form validation failure.
func IsValidation(err error) bool {
	var v domain.ValidationErrors
	return errors.As(err, &v)
}
