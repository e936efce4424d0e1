package valuation

import (
	"sort"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
)

// FillPolicy decides what a ticker contributes on a date it has no bar for
type FillPolicy int

const (
	// ZeroFill counts a missing date as zero for that ticker.
	ZeroFill FillPolicy = iota
	// ForwardFill carries the last known close. Dates before the first bar still count as zero.
	ForwardFill
	// DropIncomplete keeps only dates on which every contributing ticker has a bar.
	DropIncomplete
)

func (f FillPolicy) String() string {
	switch f {
	case ForwardFill:
		return "forward-fill"
	case DropIncomplete:
		return "drop-incomplete"
	}
	return "zero-fill"
}

var hundred = decimal.NewFromInt(100)

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildSeries sums quantity × close across holdings, aligned on the union of
// dates of all series. Holdings whose ticker has no series are ignored.
func BuildSeries(holdings []types.Holding, histories map[string]types.HistoricalSeries, fill FillPolicy) []types.ValuePoint {
	quantities := make(map[string]int64)
	for _, h := range holdings {
		if s, ok := histories[h.Ticker]; ok && !s.Empty() {
			quantities[h.Ticker] += h.Quantity
		}
	}
	if len(quantities) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(quantities))
	for t := range quantities {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	closes := make(map[string]map[time.Time]decimal.Decimal, len(tickers))
	seen := make(map[time.Time]struct{})
	for _, t := range tickers {
		m := make(map[time.Time]decimal.Decimal, len(histories[t].Bars))
		for _, b := range histories[t].Bars {
			d := day(b.Date)
			m[d] = b.Close
			seen[d] = struct{}{}
		}
		closes[t] = m
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	last := make(map[string]decimal.Decimal, len(tickers))
	series := make([]types.ValuePoint, 0, len(dates))
	for _, d := range dates {
		total := decimal.Zero
		complete := true
		for _, t := range tickers {
			c, ok := closes[t][d]
			if ok {
				last[t] = c
			} else {
				complete = false
				if fill != ForwardFill {
					continue
				}
				if c, ok = last[t]; !ok {
					continue
				}
			}
			total = total.Add(c.Mul(decimal.NewFromInt(quantities[t])))
		}
		if fill == DropIncomplete && !complete {
			continue
		}
		series = append(series, types.ValuePoint{Date: d, Value: total})
	}
	return series
}

// ChangePct is (last - first) / first × 100 over series, 0 when the first value is 0
func ChangePct(series []types.ValuePoint) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	first := series[0].Value
	if first.IsZero() {
		return decimal.Zero
	}
	return series[len(series)-1].Value.Sub(first).Div(first).Mul(hundred)
}
