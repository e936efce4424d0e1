// Package pricetest provides an in-memory price.Provider for tests.
package pricetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
)

// Fake serves canned data. Unknown tickers yield price.ErrNoData.
type Fake struct {
	mu       sync.Mutex
	history  map[string]types.HistoricalSeries
	intraday map[string]types.HistoricalSeries
	daily    map[string]types.HistoricalSeries
	prices   map[string][]decimal.Decimal
	calls    map[string]int
}

func NewFake() *Fake {
	return &Fake{
		history:  make(map[string]types.HistoricalSeries),
		intraday: make(map[string]types.HistoricalSeries),
		daily:    make(map[string]types.HistoricalSeries),
		prices:   make(map[string][]decimal.Decimal),
		calls:    make(map[string]int),
	}
}

// SetHistory registers daily history for ticker from date/close pairs
func (f *Fake) SetHistory(ticker string, closes map[string]float64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[ticker] = Series(ticker, closes)
	return f
}

// SetIntraday registers the bars returned for 1-minute requests
func (f *Fake) SetIntraday(ticker string, bars ...types.Bar) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intraday[ticker] = types.HistoricalSeries{Ticker: ticker, Bars: bars}
	return f
}

// SetDaily registers the bars returned for daily range requests
func (f *Fake) SetDaily(ticker string, bars ...types.Bar) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[ticker] = types.HistoricalSeries{Ticker: ticker, Bars: bars}
	return f
}

// SetPrices queues current prices; each call consumes one, the last one sticks
func (f *Fake) SetPrices(ticker string, prices ...float64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[ticker] = nil
	for _, p := range prices {
		f.prices[ticker] = append(f.prices[ticker], decimal.NewFromFloat(p))
	}
	return f
}

// Calls returns how many provider calls were made for ticker
func (f *Fake) Calls(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ticker]
}

func (f *Fake) History(_ context.Context, ticker string, _, _ time.Time) (types.HistoricalSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	s, ok := f.history[ticker]
	if !ok {
		return types.HistoricalSeries{Ticker: ticker}, price.ErrNoData
	}
	return s, nil
}

func (f *Fake) Intraday(_ context.Context, ticker, _, interval string) (types.HistoricalSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	src := f.intraday
	if interval == "1d" {
		src = f.daily
	}
	s, ok := src[ticker]
	if !ok {
		return types.HistoricalSeries{Ticker: ticker}, price.ErrNoData
	}
	return s, nil
}

func (f *Fake) CurrentPrice(_ context.Context, ticker string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	q := f.prices[ticker]
	if len(q) == 0 {
		return decimal.Zero, price.ErrNoData
	}
	p := q[0]
	if len(q) > 1 {
		f.prices[ticker] = q[1:]
	}
	return p, nil
}

// Series builds a series from "YYYY-MM-DD" -> close pairs, sorted ascending
func Series(ticker string, closes map[string]float64) types.HistoricalSeries {
	s := types.HistoricalSeries{Ticker: ticker}
	for d, c := range closes {
		t, err := time.Parse(types.DateLayout, d)
		if err != nil {
			panic(err)
		}
		v := decimal.NewFromFloat(c)
		s.Bars = append(s.Bars, types.Bar{Date: t, Open: v, High: v, Low: v, Close: v})
	}
	sortBars(s.Bars)
	return s
}

// Bar builds an intraday or daily bar
func Bar(at time.Time, open, close float64) types.Bar {
	return types.Bar{
		Date:  at,
		Open:  decimal.NewFromFloat(open),
		High:  decimal.NewFromFloat(max(open, close)),
		Low:   decimal.NewFromFloat(min(open, close)),
		Close: decimal.NewFromFloat(close),
	}
}

func sortBars(bars []types.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}
