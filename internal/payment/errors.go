package payment

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindInvalidCard
	KindInvalidExpiry
	KindPaymentMethodCreationFailed
	KindIntentCreationFailed
	KindConfirmationFailed
	KindAuthenticationRequired
	KindInsufficientFunds
	KindCardDeclined
	KindCardExpired
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCard:
		return "invalid_card"
	case KindInvalidExpiry:
		return "invalid_expiry"
	case KindPaymentMethodCreationFailed:
		return "payment_method_creation_failed"
	case KindIntentCreationFailed:
		return "intent_creation_failed"
	case KindConfirmationFailed:
		return "confirmation_failed"
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindCardDeclined:
		return "card_declined"
	case KindCardExpired:
		return "card_expired"
	case KindCancelled:
		return "cancelled"
	default:
		return "generic"
	}
}

type text struct {
	message  string
	recovery string
}

var texts = map[ErrorKind]text{
	KindGeneric:                     {"The payment could not be completed.", "Please try again."},
	KindInvalidCard:                 {"The card number is invalid.", "Check the card number and try again."},
	KindInvalidExpiry:               {"The expiry date is invalid.", "Enter the expiry date as MM/YY."},
	KindPaymentMethodCreationFailed: {"The card could not be saved for payment.", "Check the card details or use another card."},
	KindIntentCreationFailed:        {"The payment could not be started.", "Please try again in a moment."},
	KindConfirmationFailed:          {"The payment could not be confirmed.", "Please try again."},
	KindAuthenticationRequired:      {"Your bank requires additional authentication.", "Complete the verification with your bank and try again."},
	KindInsufficientFunds:           {"The card has insufficient funds.", "Use another card."},
	KindCardDeclined:                {"The card was declined.", "Contact your bank or use another card."},
	KindCardExpired:                 {"The card has expired.", "Use another card."},
	KindCancelled:                   {"The payment was cancelled.", ""},
}

// Error is a payment failure with a user-facing message and an optional recovery hint.
type Error struct {
	Kind     ErrorKind
	Message  string
	Recovery string
	Err      error
}

// NewError fills Message and Recovery from the kind.
func NewError(kind ErrorKind, err error) *Error {
	t := texts[kind]
	return &Error{Kind: kind, Message: t.message, Recovery: t.recovery, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment %s: %v", e.Kind, e.Err)
	}
	return "payment " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCard                 = NewError(KindInvalidCard, nil)
	ErrInvalidExpiry               = NewError(KindInvalidExpiry, nil)
	ErrPaymentMethodCreationFailed = NewError(KindPaymentMethodCreationFailed, nil)
	ErrIntentCreationFailed        = NewError(KindIntentCreationFailed, nil)
	ErrConfirmationFailed          = NewError(KindConfirmationFailed, nil)
	ErrAuthenticationRequired      = NewError(KindAuthenticationRequired, nil)
	ErrInsufficientFunds           = NewError(KindInsufficientFunds, nil)
	ErrCardDeclined                = NewError(KindCardDeclined, nil)
	ErrCardExpired                 = NewError(KindCardExpired, nil)
	ErrCancelled                   = NewError(KindCancelled, nil)
	ErrGeneric                     = NewError(KindGeneric, nil)
)

// FromDeclineCode maps a processor decline code. The processor message, when
// present, replaces the default text of generic failures only.
func FromDeclineCode(code, message string) *Error {
	var kind ErrorKind
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "insufficient_funds":
		kind = KindInsufficientFunds
	case "card_declined", "generic_decline", "do_not_honor", "lost_card", "stolen_card":
		kind = KindCardDeclined
	case "expired_card":
		kind = KindCardExpired
	case "incorrect_number", "invalid_number":
		kind = KindInvalidCard
	case "invalid_expiry_month", "invalid_expiry_year":
		kind = KindInvalidExpiry
	case "authentication_required":
		kind = KindAuthenticationRequired
	default:
		kind = KindGeneric
	}
	e := NewError(kind, fmt.Errorf("decline code %q", code))
	if kind == KindGeneric && message != "" {
		e.Message = message
	}
	return e
}

// UserMessage renders err for display, appending the recovery hint if any.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return texts[KindGeneric].message
	}
	if pe.Recovery == "" {
		return pe.Message
	}
	return pe.Message + " " + pe.Recovery
}
