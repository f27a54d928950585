package domain

import (
	"strconv"
	"strings"
)

const (
	cardNumberMinDigits = 13
	cardNumberMaxDigits = 19

	// expiryYearFloor is the earliest accepted expiry year. Cards expiring
	// before it are rejected outright.
	expiryYearFloor = 2024
)

// ValidCardNumber reports whether the card number has an acceptable digit
// count after stripping spaces. It must be all digits.
func ValidCardNumber(number string) bool {
	stripped := strings.ReplaceAll(number, " ", "")
	if len(stripped) < cardNumberMinDigits || len(stripped) > cardNumberMaxDigits {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidExpiry reports whether the expiry is an MM/YYYY or MM/YY date with a
// real month and a year at or after the floor. Two-digit years are taken as
// 2000-based.
func ValidExpiry(expiry string) bool {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}

	yearStr := parts[1]
	if len(yearStr) != 2 && len(yearStr) != 4 {
		return false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return false
	}
	if len(yearStr) == 2 {
		year += 2000
	}

	return year >= expiryYearFloor
}

// ValidatePaymentInfo returns the list of problems with the payment fields,
// empty when everything passes.
func ValidatePaymentInfo(p PaymentInfo) []string {
	var problems []string
	if !ValidCardNumber(p.CardNumber) {
		problems = append(problems, "card_number")
	}
	if !ValidExpiry(p.Expiry) {
		problems = append(problems, "expiry")
	}
	if p.CVV == "" {
		problems = append(problems, "cvv")
	}
	if p.CardholderName == "" {
		problems = append(problems, "cardholder_name")
	}
	return problems
}
