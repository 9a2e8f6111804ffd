package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"usd", "1234.5", "USD", "$1,234.50"},
		{"negative", "-20", "usd", "-$20.00"},
		{"zero", "0", "USD", "$0.00"},
		{"finer than cents", "0.005", "USD", "0.005 USD"},
		{"unknown currency", "12.34", "XXQ", "12.34 XXQ"},
		{"no currency", "7", "", "7"},
		{"beyond int64 minor units", "92233720368547758.08", "USD", "92233720368547758.08 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(MustNew(tt.amount), tt.currency))
		})
	}
}
