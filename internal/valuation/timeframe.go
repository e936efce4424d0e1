package valuation

import (
	"strings"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/pkg/errors"
)

// Timeframe selects how much of the value series is shown. Days == 0 keeps everything.
type Timeframe struct {
	Key   string
	Label string
	Days  int
}

var (
	Last30Days  = Timeframe{Key: "30d", Label: "Last 30 Days", Days: 30}
	Last3Months = Timeframe{Key: "90d", Label: "Last 3 Months", Days: 90}
	Last6Months = Timeframe{Key: "180d", Label: "Last 6 Months", Days: 180}
	LastYear    = Timeframe{Key: "1y", Label: "Last Year", Days: 365}
	FiveYears   = Timeframe{Key: "5y", Label: "5 Years", Days: 365 * 5}
	AllTime     = Timeframe{Key: "all", Label: "All Time"}
)

// Timeframes lists the selectable windows in display order
var Timeframes = []Timeframe{Last30Days, Last3Months, Last6Months, LastYear, FiveYears, AllTime}

var timeframeAliases = map[string]Timeframe{
	"30":  Last30Days,
	"1m":  Last30Days,
	"90":  Last3Months,
	"3m":  Last3Months,
	"180": Last6Months,
	"6m":  Last6Months,
	"365": LastYear,
	"5":   FiveYears,
	"max": AllTime,
}

// ParseTimeframe resolves a user supplied key. An empty string selects the first window.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Timeframes[0], nil
	}
	for _, tf := range Timeframes {
		if tf.Key == s {
			return tf, nil
		}
	}
	if tf, ok := timeframeAliases[s]; ok {
		return tf, nil
	}
	return Timeframe{}, errors.Errorf("unknown timeframe %q", s)
}

// cutoff returns the first date kept for a series ending at last
func (tf Timeframe) cutoff(last time.Time) (time.Time, bool) {
	if tf.Days <= 0 {
		return time.Time{}, false
	}
	return last.AddDate(0, 0, -tf.Days), true
}

// FilterSeries keeps the points on or after max date minus the window
func FilterSeries(series []types.ValuePoint, tf Timeframe) []types.ValuePoint {
	if len(series) == 0 {
		return series
	}
	start, ok := tf.cutoff(series[len(series)-1].Date)
	if !ok {
		return series
	}
	out := make([]types.ValuePoint, 0, len(series))
	for _, p := range series {
		if !p.Date.Before(start) {
			out = append(out, p)
		}
	}
	return out
}

// FilterBars applies the same window to a single ticker's bars
func FilterBars(s types.HistoricalSeries, tf Timeframe) types.HistoricalSeries {
	if s.Empty() {
		return s
	}
	start, ok := tf.cutoff(s.Bars[len(s.Bars)-1].Date)
	if !ok {
		return s
	}
	out := types.HistoricalSeries{Ticker: s.Ticker}
	for _, b := range s.Bars {
		if !b.Date.Before(start) {
			out.Bars = append(out.Bars, b)
		}
	}
	return out
}
