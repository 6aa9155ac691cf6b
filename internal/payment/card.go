package payment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
)

var (
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// ParseExpiry reads MM/YY. The year is expanded by prefixing "20".
func ParseExpiry(s string) (month, year int, err error) {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, NewError(KindInvalidExpiry, errors.New("expiry must be MM/YY"))
	}
	month, _ = strconv.Atoi(m[1])
	if month < 1 || month > 12 {
		return 0, 0, NewError(KindInvalidExpiry, errors.New("month out of range"))
	}
	year, _ = strconv.Atoi("20" + m[2])
	return month, year, nil
}

// ValidateCard checks raw card input and converts it to tokenization params.
// Numbers may contain spaces or dashes. A card stays valid through the last
// day of its expiry month.
func ValidateCard(card domain.CardDetails, now time.Time) (domain.CardParams, error) {
	number := digitsOnly(card.Number)
	if len(number) < 12 || len(number) > 19 || !luhn(number) {
		return domain.CardParams{}, NewError(KindInvalidCard, errors.New("card number failed validation"))
	}
	month, year, err := ParseExpiry(card.Expiry)
	if err != nil {
		return domain.CardParams{}, err
	}
	firstInvalid := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(firstInvalid) {
		return domain.CardParams{}, NewError(KindCardExpired, errors.New("card expired"))
	}
	cvc := strings.TrimSpace(card.CVC)
	if !cvcPattern.MatchString(cvc) {
		return domain.CardParams{}, NewError(KindInvalidCard, errors.New("cvc must be 3 or 4 digits"))
	}
	return domain.CardParams{
		Number:     number,
		ExpMonth:   month,
		ExpYear:    year,
		CVC:        cvc,
		HolderName: strings.TrimSpace(card.HolderName),
	}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return ""
		}
	}
	return b.String()
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
