package domain

type CheckoutStep string

const (
	CheckoutStepShippingInfo  CheckoutStep = "SHIPPING_INFO"
	CheckoutStepPaymentMethod CheckoutStep = "PAYMENT_METHOD"
	CheckoutStepReview        CheckoutStep = "REVIEW"
	CheckoutStepProcessing    CheckoutStep = "PROCESSING"
	CheckoutStepConfirmation  CheckoutStep = "CONFIRMATION"
	CheckoutStepError         CheckoutStep = "ERROR"
)

// IsTerminal reports whether the wizard has finished; only Retry leaves the error step.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepConfirmation || s == CheckoutStepError
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutStep][]CheckoutStep{
	CheckoutStepShippingInfo:  {CheckoutStepPaymentMethod},
	CheckoutStepPaymentMethod: {CheckoutStepReview, CheckoutStepShippingInfo},
	CheckoutStepReview:        {CheckoutStepProcessing, CheckoutStepPaymentMethod},
	CheckoutStepProcessing:    {CheckoutStepConfirmation, CheckoutStepError, CheckoutStepReview},
	CheckoutStepError:         {CheckoutStepReview},
}

// CanTransitionTo reports whether the wizard may move from one step to another.
// Resetting to shipping info on cancel is not a transition and is not covered here.
func CanTransitionTo(from, to CheckoutStep) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Previous returns the step reached by going back from s.
// Only payment method and review have a previous step.
func (s CheckoutStep) Previous() (CheckoutStep, bool) {
	switch s {
	case CheckoutStepPaymentMethod:
		return CheckoutStepShippingInfo, true
	case CheckoutStepReview:
		return CheckoutStepPaymentMethod, true
	default:
		return s, false
	}
}
