package layout_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"invoicegen/internal/layout"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in       string
		currency string
		scale    int32
		want     string
	}{
		{"0", "JPY", 0, "¥0"},
		{"1234567", "JPY", 0, "¥1,234,567"},
		{"999", "JPY", 0, "¥999"},
		{"1000", "JPY", 0, "¥1,000"},
		{"0.5", "JPY", 0, "¥0.5"},
		{"1234.5", "USD", 2, "1,234.50"},
		{"1234.567", "USD", 2, "1,234.567"},
		{"123456789012345678901234", "JPY", 0, "¥123,456,789,012,345,678,901,234"},
	}
	for _, tc := range cases {
		got := layout.FormatAmount(decimal.RequireFromString(tc.in), tc.currency, tc.scale)
		assert.Equal(t, tc.want, got, "FormatAmount(%s, %s)", tc.in, tc.currency)
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "10", layout.FormatQuantity(decimal.RequireFromString("10")))
	assert.Equal(t, "1.5", layout.FormatQuantity(decimal.RequireFromString("1.50")))
	assert.Equal(t, "12,000", layout.FormatQuantity(decimal.RequireFromString("12000")))
}
