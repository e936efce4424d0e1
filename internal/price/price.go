package price

import (
	"context"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNoData is returned when the provider knows nothing about a ticker for the requested window
var ErrNoData = errors.New("no price data")

// Provider is the market data source used by the valuation engine, the alert
// evaluator and the watchlist.
type Provider interface {
	// History returns daily bars between from and to, ascending.
	History(ctx context.Context, ticker string, from, to time.Time) (types.HistoricalSeries, error)
	// Intraday returns bars for a relative range ("1d", "2d") at the given interval ("1m", "1d").
	Intraday(ctx context.Context, ticker, period, interval string) (types.HistoricalSeries, error)
	// CurrentPrice returns the latest traded price.
	CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// HistoryYears is how far back portfolio history is requested
const HistoryYears = 15

// HistoryWindow returns the [from, to] range used for portfolio history ending at now
func HistoryWindow(now time.Time) (time.Time, time.Time) {
	return now.AddDate(-HistoryYears, 0, 0), now
}

// LastClose returns the close of the last bar of s
func LastClose(s types.HistoricalSeries) (decimal.Decimal, bool) {
	if s.Empty() {
		return decimal.Zero, false
	}
	return s.Bars[len(s.Bars)-1].Close, true
}
