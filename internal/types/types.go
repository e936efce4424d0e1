package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout used for buy dates and exported dates
const DateLayout = "2006-01-02"

// Holding is one recorded purchase lot of a ticker
type Holding struct {
	Seq          int64           `json:"seq"`
	Name         string          `json:"name"`
	Ticker       string          `json:"ticker"`
	Quantity     int64           `json:"quantity"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	BuyDate      time.Time       `json:"buy_date"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// Bar is a single OHLCV point of a price series
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// HistoricalSeries is the ascending list of bars for one ticker
type HistoricalSeries struct {
	Ticker string
	Bars   []Bar
}

// Empty reports whether the series carries no bars
func (s HistoricalSeries) Empty() bool {
	return len(s.Bars) == 0
}

// ValuePoint is a single date of the portfolio value series
type ValuePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Direction of an alert rule
type Direction int

const (
	Above Direction = iota + 1
	Below
)

func (d Direction) String() string {
	switch d {
	case Above:
		return "Above"
	case Below:
		return "Below"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "above"/"below" in any case
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", ">", ">=":
		return Above, nil
	case "below", "<", "<=":
		return Below, nil
	}
	return 0, fmt.Errorf("unknown alert direction %q", s)
}

// Satisfied reports whether price meets target in direction d
func (d Direction) Satisfied(price, target decimal.Decimal) bool {
	switch d {
	case Above:
		return price.GreaterThanOrEqual(target)
	case Below:
		return price.LessThanOrEqual(target)
	}
	return false
}

// AlertRule is a standing price-target condition, one per ticker
type AlertRule struct {
	Ticker      string          `json:"ticker"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Direction   Direction       `json:"direction"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SentAlert records a rule that fired
type SentAlert struct {
	Ticker         string          `json:"ticker"`
	TargetPrice    decimal.Decimal `json:"target_price"`
	Direction      Direction       `json:"direction"`
	PriceAtTrigger decimal.Decimal `json:"price_at_trigger"`
	TriggeredAt    time.Time       `json:"triggered_at"`
}

// SentimentLabel classifies a compound sentiment score
type SentimentLabel int

const (
	Neutral SentimentLabel = iota
	Positive
	Negative
)

// SentimentThreshold separates neutral scores from polarized ones
const SentimentThreshold = 0.05

// LabelFor maps a compound score in [-1, 1] to a label. The thresholds are exclusive.
func LabelFor(score float64) SentimentLabel {
	switch {
	case score > SentimentThreshold:
		return Positive
	case score < -SentimentThreshold:
		return Negative
	}
	return Neutral
}

func (l SentimentLabel) String() string {
	switch l {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	}
	return "Neutral"
}

// Icon is the marker shown next to an article
func (l SentimentLabel) Icon() string {
	switch l {
	case Positive:
		return "🟢"
	case Negative:
		return "🔴"
	}
	return "🟡"
}

// WatchlistEntry is one computed watchlist row
type WatchlistEntry struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

// NormalizeTicker trims and upper-cases user supplied symbols
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
