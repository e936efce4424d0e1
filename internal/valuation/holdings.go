package valuation

import (
	"sort"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
)

// Position is the aggregate of all holdings sharing a name and ticker
type Position struct {
	Name         string
	Ticker       string
	Quantity     int64
	TotalCost    decimal.Decimal
	AvgBuyPrice  decimal.Decimal
	CurrentPrice decimal.Decimal
	BuyDate      time.Time
}

// MarketValue is the position valued at its current price
func (p Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// Purchase is a single holding with its profit since purchase
type Purchase struct {
	types.Holding
	ProfitPct decimal.Decimal
}

type positionKey struct {
	name   string
	ticker string
}

// Aggregate groups holdings by (name, ticker), ordered by name then ticker.
// The current price comes from the most recently added holding of the group
// and the buy date is the earliest one.
func Aggregate(holdings []types.Holding) []Position {
	groups := make(map[positionKey]*Position)
	latest := make(map[positionKey]int64)

	for _, h := range holdings {
		k := positionKey{name: h.Name, ticker: h.Ticker}
		lineCost := h.BuyPrice.Mul(decimal.NewFromInt(h.Quantity)).Round(2)

		p, ok := groups[k]
		if !ok {
			groups[k] = &Position{
				Name:         h.Name,
				Ticker:       h.Ticker,
				Quantity:     h.Quantity,
				TotalCost:    lineCost,
				CurrentPrice: h.CurrentPrice,
				BuyDate:      h.BuyDate,
			}
			latest[k] = h.Seq
			continue
		}

		p.Quantity += h.Quantity
		p.TotalCost = p.TotalCost.Add(lineCost)
		if h.BuyDate.Before(p.BuyDate) {
			p.BuyDate = h.BuyDate
		}
		if h.Seq >= latest[k] {
			p.CurrentPrice = h.CurrentPrice
			latest[k] = h.Seq
		}
	}

	out := make([]Position, 0, len(groups))
	for _, p := range groups {
		if p.Quantity > 0 {
			p.AvgBuyPrice = p.TotalCost.Div(decimal.NewFromInt(p.Quantity)).Round(2)
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// ProfitPct is (current - buy) / buy × 100 rounded to 2 decimals
func ProfitPct(buy, current decimal.Decimal) decimal.Decimal {
	if buy.IsZero() {
		return decimal.Zero
	}
	return current.Sub(buy).Div(buy).Mul(hundred).Round(2)
}

// Purchases returns every holding with its profit, in insertion order
func Purchases(holdings []types.Holding) []Purchase {
	out := make([]Purchase, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, Purchase{Holding: h, ProfitPct: ProfitPct(h.BuyPrice, h.CurrentPrice)})
	}
	return out
}

// Totals sums cost and market value across positions
func Totals(positions []Position) (cost, value decimal.Decimal) {
	cost, value = decimal.Zero, decimal.Zero
	for _, p := range positions {
		cost = cost.Add(p.TotalCost)
		value = value.Add(p.MarketValue())
	}
	return cost, value
}
