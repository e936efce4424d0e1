package session

import (
	"context"
	"testing"
	"time"

	"portfolio-dashboard-bot/internal/price/pricetest"
	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/internal/watchlist"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyDate = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func newHolding(ticker string, qty int64, price string) NewHolding {
	return NewHolding{
		Name:     "Apple",
		Ticker:   ticker,
		Quantity: qty,
		BuyPrice: decimal.RequireFromString(price),
		BuyDate:  buyDate,
	}
}

func TestAddHolding(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("AAPL", 190.5)
	c := NewCommands(fake)
	s := New()

	h, err := c.AddHolding(context.Background(), s, newHolding(" aapl", 3, "150.123"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.Seq)
	assert.Equal(t, "AAPL", h.Ticker)
	assert.Equal(t, "150.12", h.BuyPrice.String())
	assert.Equal(t, "190.5", h.CurrentPrice.String())
	assert.Equal(t, []types.Holding{h}, s.Holdings())

	second, err := c.AddHolding(context.Background(), s, newHolding("AAPL", 1, "160"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Len(t, s.Holdings(), 2, "purchases of the same ticker are never merged")
}

func TestAddHoldingRejectsInvalidInput(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("AAPL", 190)
	c := NewCommands(fake)
	s := New()

	cases := map[string]NewHolding{
		"empty ticker":   newHolding("", 1, "10"),
		"long ticker":    newHolding("ABCDEFGHIJK", 1, "10"),
		"zero quantity":  newHolding("AAPL", 0, "10"),
		"negative price": newHolding("AAPL", 1, "-1"),
		"zero price":     newHolding("AAPL", 1, "0"),
		"unknown ticker": newHolding("ZZZZ", 1, "10"),
		"no date":        {Ticker: "AAPL", Quantity: 1, BuyPrice: decimal.NewFromInt(1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.AddHolding(context.Background(), s, in)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Empty(t, s.Holdings())
		})
	}
}

func TestAddHoldingDefaultsName(t *testing.T) {
	c := NewCommands(pricetest.NewFake().SetPrices("MSFT", 400))
	s := New()
	in := newHolding("MSFT", 1, "300")
	in.Name = "  "

	h, err := c.AddHolding(context.Background(), s, in)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", h.Name)
}

func TestDeleteAndRemoveHoldings(t *testing.T) {
	c := NewCommands(pricetest.NewFake().SetPrices("AAPL", 190).SetPrices("MSFT", 400))
	s := New()

	_, ok := c.DeleteLastHolding(s)
	assert.False(t, ok)

	_, err := c.AddHolding(context.Background(), s, newHolding("AAPL", 1, "100"))
	require.NoError(t, err)
	_, err = c.AddHolding(context.Background(), s, newHolding("MSFT", 1, "100"))
	require.NoError(t, err)

	last, ok := c.DeleteLastHolding(s)
	assert.True(t, ok)
	assert.Equal(t, "MSFT", last.Ticker)
	assert.Len(t, s.Holdings(), 1)

	assert.Equal(t, 1, c.RemoveAllHoldings(s))
	assert.Empty(t, s.Holdings())
}

func TestWatchlistCommands(t *testing.T) {
	c := NewCommands(pricetest.NewFake())
	s := New()
	assert.Equal(t, watchlist.Default, s.Watchlist())

	added, err := c.AddToWatchlist(s, "amzn ")
	require.NoError(t, err)
	assert.Equal(t, "AMZN", added)

	_, err = c.AddToWatchlist(s, "AAPL")
	assert.True(t, IsValidation(err))

	_, err = c.AddToWatchlist(s, "")
	assert.True(t, IsValidation(err))

	assert.Len(t, s.Watchlist(), len(watchlist.Default)+1)
	c.ResetWatchlist(s)
	assert.Equal(t, watchlist.Default, s.Watchlist())
}

func TestAlertRuleCommands(t *testing.T) {
	c := NewCommands(pricetest.NewFake())
	s := New()

	_, err := c.AddAlertRule(s, "aapl", decimal.NewFromInt(200), types.Above, time.Now())
	require.NoError(t, err)
	_, err = c.AddAlertRule(s, "AAPL", decimal.NewFromInt(150), types.Below, time.Now())
	require.NoError(t, err)

	rules := s.Alerts().Rules()
	require.Len(t, rules, 1, "one rule per ticker")
	assert.Equal(t, types.Below, rules[0].Direction)

	_, err = c.AddAlertRule(s, "AAPL", decimal.Zero, types.Above, time.Now())
	assert.True(t, IsValidation(err))
	_, err = c.AddAlertRule(s, "AAPL", decimal.NewFromInt(1), types.Direction(0), time.Now())
	assert.True(t, IsValidation(err))

	require.NoError(t, c.RemoveAlertRule(s, "aapl"))
	assert.True(t, IsValidation(c.RemoveAlertRule(s, "AAPL")))
}

func TestSetEmail(t *testing.T) {
	c := NewCommands(pricetest.NewFake())
	s := New()

	require.NoError(t, c.SetEmail(s, "Me <me@example.com>"))
	assert.Equal(t, "me@example.com", s.Email())

	assert.True(t, IsValidation(c.SetEmail(s, "not an address")))
	assert.Equal(t, "me@example.com", s.Email())

	require.NoError(t, c.SetEmail(s, ""))
	assert.Empty(t, s.Email())
}

func TestStore(t *testing.T) {
	store := NewStore()
	a := store.Get(1)
	assert.Same(t, a, store.Get(1))
	store.Get(2)
	assert.Equal(t, 2, store.Len())

	c := NewCommands(pricetest.NewFake())
	require.NoError(t, c.SetEmail(a, "me@example.com"))
	targets := store.Targets()
	assert.Len(t, targets, 2)

	store.End(1)
	assert.Equal(t, 1, store.Len())
	b := store.Get(1)
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.Generation(), b.Generation())
}
