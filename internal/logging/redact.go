package logging

import (
	"encoding/json"
	"regexp"
	"strings"
)

const redacted = "***redacted***"

// cardLike matches 13 to 19 digits, optionally grouped by spaces or dashes.
var cardLike = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"secret":        {},
	"client_secret": {},
	"ephemeral_key": {},
	"card_number":   {},
	"number":        {},
	"cvc":           {},
	"cvv":           {},
	"exp":           {},
	"expiry":        {},
	"exp_month":     {},
	"exp_year":      {},
}

// RedactJSON scrubs credential and card fields from a JSON payload.
// Input that is not JSON is replaced entirely.
func RedactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var m any
	if err := json.Unmarshal(raw, &m); err != nil {
		return []byte(redacted)
	}
	var scrub func(any) any
	scrub = func(x any) any {
		switch v := x.(type) {
		case map[string]any:
			for k, val := range v {
				if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
					v[k] = redacted
					continue
				}
				v[k] = scrub(val)
			}
			return v
		case []any:
			for i := range v {
				v[i] = scrub(v[i])
			}
			return v
		default:
			return v
		}
	}
	out, err := json.Marshal(scrub(m))
	if err != nil {
		return []byte(redacted)
	}
	return out
}

// RedactText masks anything in free text that looks like a card number.
func RedactText(s string) string {
	return cardLike.ReplaceAllString(s, redacted)
}
