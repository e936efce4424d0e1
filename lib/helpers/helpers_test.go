package helpers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `AAPL \+1\.50% \(today\)`, EscapeMarkdownV2("AAPL +1.50% (today)"))
	assert.Equal(t, `a\\b`, EscapeMarkdownV2(`a\b`))
}

func TestFormatPriceUS(t *testing.T) {
	tests := []struct {
		price  float64
		escape bool
		want   string
	}{
		{1234.5, false, "1,234.50"},
		{190.123, false, "190.12"},
		{250000, false, "250,000"},
		{0.001234, false, "0.001234"},
		{1234.5, true, `1,234\.50`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPriceUS(tt.price, tt.escape))
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatMoney(decimal.RequireFromString("1234.556")))
	assert.Equal(t, "-$20.50", FormatMoney(decimal.RequireFromString("-20.5")))
	assert.Equal(t, "$1,000.00", FormatMoney(decimal.NewFromInt(1000)))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+10.00%", FormatPercent(decimal.NewFromInt(10)))
	assert.Equal(t, "-5.00%", FormatPercent(decimal.NewFromInt(-5)))
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
}

func TestFormatQuantityAndDate(t *testing.T) {
	assert.Equal(t, "12,500", FormatQuantity(12500))
	assert.Equal(t, "2025-01-10", FormatDate(time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)))
}

func TestChangeIcon(t *testing.T) {
	assert.Equal(t, "📈", ChangeIcon(decimal.NewFromInt(1)))
	assert.Equal(t, "📉", ChangeIcon(decimal.NewFromInt(-1)))
	assert.Equal(t, "➖", ChangeIcon(decimal.Zero))
}
