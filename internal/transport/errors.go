package transport

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBadRequest
	KindServerError
	KindDecoding
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindServerError:
		return "server_error"
	case KindDecoding:
		return "decoding_error"
	default:
		return "unknown"
	}
}

// Error is the typed failure every backend call returns.
// Status is 0 when no response was received.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrServerError  = &Error{Kind: KindServerError}
	ErrDecoding     = &Error{Kind: KindDecoding}
	ErrUnknown      = &Error{Kind: KindUnknown}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of status or detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the transport kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

func statusError(status int, detail string) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Status: status, Detail: detail}
	case status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Detail: detail}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Detail: detail}
	case status >= 400 && status < 500:
		return &Error{Kind: KindBadRequest, Status: status, Detail: detail}
	case status >= 500:
		return &Error{Kind: KindServerError, Status: status, Detail: detail}
	default:
		return &Error{Kind: KindUnknown, Status: status, Detail: detail}
	}
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *Error
	if !errors.As(err, &te) {
		return "Something went wrong. Please try again."
	}
	switch te.Kind {
	case KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindForbidden:
		return "You are not allowed to do that."
	case KindNotFound:
		return "The requested item was not found."
	case KindBadRequest:
		if te.Detail != "" {
			return te.Detail
		}
		return "The request was invalid."
	case KindServerError:
		if te.Detail != "" {
			return "Server error: " + te.Detail
		}
		return "The server encountered an error. Please try again later."
	case KindDecoding:
		return "Received an unexpected response from the server."
	default:
		return "A network error occurred. Please check your connection."
	}
}
