package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full name", "United States", "US"},
		{"abbreviation", "USA", "US"},
		{"dotted", "U.S.", "US"},
		{"already a code", "us", "US"},
		{"surrounding whitespace", "  canada  ", "CA"},
		{"mixed case", "uNiTeD kInGdOm", "GB"},
		{"uk alias", "UK", "GB"},
		{"germany", "germany", "DE"},
		{"unknown passes through upper-cased", "Narnia", "NARNIA"},
		{"unknown code passes through", "jp", "JP"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCountry(tt.input))
		})
	}
}
