package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// Engine turns holdings into a portfolio value series
type Engine struct {
	provider price.Provider
	fill     FillPolicy
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithFillPolicy overrides the default ZeroFill policy
func WithFillPolicy(f FillPolicy) Option {
	return func(e *Engine) { e.fill = f }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(p price.Provider, opts ...Option) *Engine {
	e := &Engine{provider: p, fill: ZeroFill, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Valuation is the outcome of one valuation pass
type Valuation struct {
	Timeframe Timeframe
	Series    []types.ValuePoint
	ChangePct decimal.Decimal
	// PerTicker holds each ticker's bars within the timeframe, sorted by ticker.
	PerTicker []types.HistoricalSeries
	// Warnings lists tickers that were left out of the sum.
	Warnings []string
}

type fetched struct {
	series types.HistoricalSeries
	err    error
}

// Histories fetches each distinct ticker once. Fetches run concurrently but
// the result is keyed by ticker, never by completion order.
func (e *Engine) Histories(ctx context.Context, tickers []string) (map[string]types.HistoricalSeries, []string) {
	from, to := price.HistoryWindow(e.now())
	results := iter.Map(tickers, func(t *string) fetched {
		s, err := e.provider.History(ctx, *t, from, to)
		return fetched{series: s, err: err}
	})

	out := make(map[string]types.HistoricalSeries, len(tickers))
	var warnings []string
	for i, t := range tickers {
		r := results[i]
		switch {
		case r.err != nil:
			log.Warnf("history for %s unavailable: %v", t, r.err)
			warnings = append(warnings, fmt.Sprintf("Error fetching data for %s", t))
		case r.series.Empty():
			log.Warnf("history for %s is empty", t)
			warnings = append(warnings, fmt.Sprintf("No historical data available for %s", t))
		default:
			out[t] = r.series
		}
	}
	return out, warnings
}

// Value runs the full pipeline for holdings over tf
func (e *Engine) Value(ctx context.Context, holdings []types.Holding, tf Timeframe) Valuation {
	v := Valuation{Timeframe: tf, ChangePct: decimal.Zero}
	if len(holdings) == 0 {
		return v
	}

	histories, warnings := e.Histories(ctx, DistinctTickers(holdings))
	v.Warnings = warnings

	v.Series = FilterSeries(BuildSeries(holdings, histories, e.fill), tf)
	v.ChangePct = ChangePct(v.Series)

	for _, t := range DistinctTickers(holdings) {
		if s, ok := histories[t]; ok {
			v.PerTicker = append(v.PerTicker, FilterBars(s, tf))
		}
	}
	return v
}

// DistinctTickers returns the sorted set of tickers held
func DistinctTickers(holdings []types.Holding) []string {
	set := make(map[string]struct{})
	for _, h := range holdings {
		set[h.Ticker] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
