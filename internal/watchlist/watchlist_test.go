package watchlist

import (
	"context"
	"testing"
	"time"

	"portfolio-dashboard-bot/internal/price/pricetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(ExchangeTimezone)
	require.NoError(t, err)
	return loc
}

func TestInSession(t *testing.T) {
	ny := newYork(t)
	c := NewCalculator(pricetest.NewFake(), nil)

	// 2025-03-05 is a Wednesday
	assert.False(t, c.InSession(time.Date(2025, 3, 5, 9, 29, 0, 0, ny)))
	assert.True(t, c.InSession(time.Date(2025, 3, 5, 9, 30, 0, 0, ny)))
	assert.True(t, c.InSession(time.Date(2025, 3, 5, 18, 0, 0, 0, ny)), "closing bell is not modeled")
	assert.False(t, c.InSession(time.Date(2025, 3, 8, 11, 0, 0, 0, ny)), "saturday")
	assert.False(t, c.InSession(time.Date(2025, 3, 9, 11, 0, 0, 0, ny)), "sunday")

	// 14:45 UTC is 09:45 in New York in winter
	assert.True(t, c.InSession(time.Date(2025, 1, 6, 14, 45, 0, 0, time.UTC)))
}

func TestComputeInSession(t *testing.T) {
	ny := newYork(t)
	now := time.Date(2025, 3, 5, 11, 0, 0, 0, ny)
	fake := pricetest.NewFake().
		SetDaily("AAPL", pricetest.Bar(now.AddDate(0, 0, -1), 90, 92), pricetest.Bar(now, 100, 104)).
		SetIntraday("AAPL",
			pricetest.Bar(now.Add(-90*time.Minute), 100, 101),
			pricetest.Bar(now.Add(-time.Minute), 108, 110),
		).
		SetDaily("MSFT", pricetest.Bar(now, 300, 301))

	c := NewCalculator(fake, func() time.Time { return now })
	entries, warnings := c.Compute(context.Background(), []string{"AAPL", "MSFT", "ZZZZ"})

	require.Len(t, entries, 1)
	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, "110.00", entries[0].Price.StringFixed(2))
	assert.Equal(t, "10.00", entries[0].ChangePct.StringFixed(2))
	assert.Equal(t, []string{
		"No intraday data available for MSFT today.",
		"No historical data available for ZZZZ.",
	}, warnings)
}

func TestComputeOutsideSession(t *testing.T) {
	ny := newYork(t)
	now := time.Date(2025, 3, 8, 11, 0, 0, 0, ny)
	fake := pricetest.NewFake().
		SetDaily("TSLA", pricetest.Bar(now.AddDate(0, 0, -2), 80, 85), pricetest.Bar(now.AddDate(0, 0, -1), 100, 95))

	c := NewCalculator(fake, func() time.Time { return now })
	entries, warnings := c.Compute(context.Background(), []string{"TSLA"})

	assert.Empty(t, warnings)
	require.Len(t, entries, 1)
	assert.Equal(t, "95.00", entries[0].Price.StringFixed(2))
	assert.Equal(t, "-5.00", entries[0].ChangePct.StringFixed(2))
}

func TestChangeHelpersEmpty(t *testing.T) {
	_, ok := SessionChange("AAPL", pricetest.Series("AAPL", nil))
	assert.False(t, ok)
	_, ok = PreviousSessionChange("AAPL", pricetest.Series("AAPL", nil))
	assert.False(t, ok)
}
