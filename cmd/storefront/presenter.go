package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
)

const maxCardAttempts = 3

// terminalPresenter is the hosted confirmation step on a terminal: it asks
// for card details and confirms the sheet's intent with them. An empty card
// number cancels.
type terminalPresenter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPresenter(in *bufio.Reader, out io.Writer) *terminalPresenter {
	return &terminalPresenter{in: in, out: out}
}

func (p *terminalPresenter) Present(ctx context.Context, sheet *payment.Sheet) payment.SheetResult {
	fmt.Fprintf(p.out, "\n%s requests %s %s\n", sheet.MerchantName, sheet.Amount.StringFixed(2), strings.ToUpper(sheet.Currency))

	for attempt := 1; attempt <= maxCardAttempts; attempt++ {
		card, ok, err := p.readCard(ctx)
		if err != nil || !ok {
			return payment.SheetResult{Outcome: payment.OutcomeCanceled}
		}

		err = sheet.Confirm(ctx, card)
		switch {
		case err == nil:
			return payment.SheetResult{Outcome: payment.OutcomeSucceeded}
		case errors.Is(err, payment.ErrCancelled):
			return payment.SheetResult{Outcome: payment.OutcomeCanceled}
		case retryable(err) && attempt < maxCardAttempts:
			fmt.Fprintln(p.out, payment.UserMessage(err))
		default:
			return payment.SheetResult{Outcome: payment.OutcomeFailed, Err: err}
		}
	}
	return payment.SheetResult{Outcome: payment.OutcomeFailed, Err: payment.ErrGeneric}
}

// retryable reports whether the user can fix err by typing the card again.
func retryable(err error) bool {
	return errors.Is(err, payment.ErrInvalidCard) ||
		errors.Is(err, payment.ErrInvalidExpiry) ||
		errors.Is(err, payment.ErrCardExpired)
}

func (p *terminalPresenter) readCard(ctx context.Context) (domain.CardDetails, bool, error) {
	var card domain.CardDetails
	var err error
	if card.Number, err = p.prompt(ctx, "Card number (empty to cancel): "); err != nil || card.Number == "" {
		return card, false, err
	}
	if card.Expiry, err = p.prompt(ctx, "Expiry (MM/YY): "); err != nil {
		return card, false, err
	}
	if card.CVC, err = p.prompt(ctx, "CVC: "); err != nil {
		return card, false, err
	}
	if card.HolderName, err = p.prompt(ctx, "Name on card: "); err != nil {
		return card, false, err
	}
	return card, true, nil
}

func (p *terminalPresenter) prompt(ctx context.Context, label string) (string, error) {
	return readLine(ctx, p.in, p.out, label)
}
