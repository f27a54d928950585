package domain

import (
	"strings"
)

// countryCodes maps common free-text country spellings to ISO-2 codes.
// Lookup is case-insensitive on the trimmed input.
var countryCodes = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"u.s.":                     "US",
	"u.s.a.":                   "US",
	"us":                       "US",
	"america":                  "US",
	"canada":                   "CA",
	"ca":                       "CA",
	"mexico":                   "MX",
	"mx":                       "MX",
	"united kingdom":           "GB",
	"uk":                       "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"australia":                "AU",
	"au":                       "AU",
	"germany":                  "DE",
	"de":                       "DE",
	"france":                   "FR",
	"fr":                       "FR",
}

// NormalizeCountry maps free-text country input to an ISO-2 code. Unmatched
// input is upper-cased as a best-effort code rather than rejected.
func NormalizeCountry(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if code, ok := countryCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	return strings.ToUpper(trimmed)
}
