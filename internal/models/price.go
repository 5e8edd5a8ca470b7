package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CurrencyPrefix is the currency marker the shop prints in front of every amount.
const CurrencyPrefix = "Rs."

// Parsing errors
var (
	ErrMalformedPrice    = errors.New("malformed price")
	ErrMalformedQuantity = errors.New("malformed quantity")
)

// ParsePrice converts shop price text like "Rs. 1,234" into 1234.
func ParsePrice(text string) (int, error) {
	raw := strings.TrimSpace(text)
	raw = strings.TrimPrefix(raw, CurrencyPrefix)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)

	if raw == "" || strings.ContainsAny(raw, "+-") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPrice, text)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedPrice, text, err)
	}
	return value, nil
}

// ParseQuantity converts a displayed or typed quantity into an int.
func ParseQuantity(text string) (int, error) {
	raw := strings.TrimSpace(text)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedQuantity, text)
	}
	return value, nil
}

// FormatPrice renders an amount the way the shop displays it, e.g. "Rs. 1,234".
func FormatPrice(amount int) string {
	digits := strconv.Itoa(amount)
	sign := ""
	if amount < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return CurrencyPrefix + " " + sign + b.String()
}
