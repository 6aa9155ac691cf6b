package checkout

import (
	"errors"

	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

var (
	ErrNoAddress          = errors.New("no shipping address resolved")
	ErrUnknownAddress     = errors.New("address is not in the loaded list")
	ErrNoPaymentMethod    = errors.New("no payment method selected")
	ErrNotSignedIn        = errors.New("checkout requires a signed in user")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrPaymentInProgress  = errors.New("payment already in progress")
	ErrCheckoutFinished   = errors.New("checkout already finished")
	ErrIllegalTransition  = errors.New("illegal transition of checkout step")
	ErrConfirmationClosed = errors.New("confirmation ended without a result")
)

const (
	msgNoAddress        = "Please add or select a shipping address."
	msgInvalidAddress   = "Please correct the highlighted address fields."
	msgNoPaymentMethod  = "Please select a payment method."
	msgNotSignedIn      = "Please sign in to check out."
	msgEmptyCart        = "Your cart is empty."
	msgPaymentCancelled = "Payment cancelled"
)

// userMessage prefers the payment wording when the failure came from the processor.
func userMessage(err error) string {
	var pe *payment.Error
	if errors.As(err, &pe) {
		return payment.UserMessage(err)
	}
	return transport.UserMessage(err)
}
