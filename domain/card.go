package domain

import (
	"fmt"
	"log/slog"
)

// CardDetails is raw card input. It never renders its contents through fmt or slog.
type CardDetails struct {
	Number     string
	Expiry     string
	CVC        string
	HolderName string
}

func (c CardDetails) String() string {
	return "CardDetails{" + MaskCardNumber(c.Number) + "}"
}

func (c CardDetails) GoString() string {
	return c.String()
}

func (c CardDetails) LogValue() slog.Value {
	return slog.GroupValue(slog.String("number", MaskCardNumber(c.Number)))
}

// CardParams is validated card input ready for tokenization.
type CardParams struct {
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
	HolderName string `json:"name,omitempty"`
}

func (c CardParams) String() string {
	return "CardParams{" + MaskCardNumber(c.Number) + "}"
}

func (c CardParams) GoString() string {
	return c.String()
}

func (c CardParams) LogValue() slog.Value {
	return slog.GroupValue(slog.String("number", MaskCardNumber(c.Number)))
}

// MaskCardNumber keeps the last four digits only.
func MaskCardNumber(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "****"
	}
	return fmt.Sprintf("**** %s", string(digits[len(digits)-4:]))
}
