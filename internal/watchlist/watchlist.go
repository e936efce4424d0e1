package watchlist

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Default is the watchlist a new session starts with
var Default = []string{"AAPL", "MSFT", "TSLA", "GOOGL", "NVDA"}

// ExchangeTimezone is where the regular session is measured
const ExchangeTimezone = "America/New_York"

var hundred = decimal.NewFromInt(100)

// Calculator computes the latest price and percent change of watched tickers
type Calculator struct {
	provider price.Provider
	loc      *time.Location
	now      func() time.Time
}

func NewCalculator(p price.Provider, now func() time.Time) *Calculator {
	loc, err := time.LoadLocation(ExchangeTimezone)
	if err != nil {
		log.Errorf("failed to load %s, using UTC: %v", ExchangeTimezone, err)
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calculator{provider: p, loc: loc, now: now}
}

// InSession reports whether t falls in the regular session: a weekday at or
// after 09:30 exchange time. Holidays and the closing bell are not modeled.
func (c *Calculator) InSession(t time.Time) bool {
	t = t.In(c.loc)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return t.Hour() > 9 || (t.Hour() == 9 && t.Minute() >= 30)
}

// Compute returns one entry per ticker with data, in input order, plus a
// warning for each skipped ticker.
func (c *Calculator) Compute(ctx context.Context, tickers []string) ([]types.WatchlistEntry, []string) {
	open := c.InSession(c.now())
	entries := make([]types.WatchlistEntry, 0, len(tickers))
	var warnings []string

	for _, ticker := range tickers {
		daily, err := c.provider.Intraday(ctx, ticker, "2d", "1d")
		if err != nil || daily.Empty() {
			log.Warnf("no daily data for %s: %v", ticker, err)
			warnings = append(warnings, fmt.Sprintf("No historical data available for %s.", ticker))
			continue
		}

		var entry types.WatchlistEntry
		var ok bool
		if open {
			intraday, err := c.provider.Intraday(ctx, ticker, "1d", "1m")
			if err != nil {
				log.Warnf("no intraday data for %s: %v", ticker, err)
			}
			entry, ok = SessionChange(ticker, intraday)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("No intraday data available for %s today.", ticker))
				continue
			}
		} else {
			entry, ok = PreviousSessionChange(ticker, daily)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("No historical data available for %s.", ticker))
				continue
			}
		}
		entries = append(entries, entry)
	}
	return entries, warnings
}

// SessionChange measures the move from today's first open to the latest close
func SessionChange(ticker string, intraday types.HistoricalSeries) (types.WatchlistEntry, bool) {
	if intraday.Empty() {
		return types.WatchlistEntry{}, false
	}
	open := intraday.Bars[0].Open
	latest := intraday.Bars[len(intraday.Bars)-1].Close
	return types.WatchlistEntry{Ticker: ticker, Price: latest, ChangePct: pct(open, latest)}, true
}

// PreviousSessionChange measures the open to close move of the last daily bar
func PreviousSessionChange(ticker string, daily types.HistoricalSeries) (types.WatchlistEntry, bool) {
	if daily.Empty() {
		return types.WatchlistEntry{}, false
	}
	last := daily.Bars[len(daily.Bars)-1]
	return types.WatchlistEntry{Ticker: ticker, Price: last.Close, ChangePct: pct(last.Open, last.Close)}, true
}

func pct(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}
