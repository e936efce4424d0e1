package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"portfolio-dashboard-bot/internal/chart"
	"portfolio-dashboard-bot/internal/export"
	"portfolio-dashboard-bot/internal/session"
	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/internal/valuation"
	"portfolio-dashboard-bot/lib/helpers"
	"portfolio-dashboard-bot/lib/translation"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ParseAdd reads "<ticker> <qty> <price> [YYYY-MM-DD] [name...]". Without a
// date the purchase is dated today.
func ParseAdd(args string, today time.Time) (session.NewHolding, error) {
	usage := &session.ValidationError{Msg: translation.Translate("add_command_usage")}

	fields := strings.Fields(args)
	if len(fields) < 3 {
		return session.NewHolding{}, usage
	}

	qty, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return session.NewHolding{}, &session.ValidationError{Msg: fmt.Sprintf("Invalid quantity %q.", fields[1])}
	}
	buyPrice, err := decimal.NewFromString(strings.TrimPrefix(fields[2], "$"))
	if err != nil {
		return session.NewHolding{}, &session.ValidationError{Msg: fmt.Sprintf("Invalid buy price %q.", fields[2])}
	}

	in := session.NewHolding{
		Ticker:   fields[0],
		Quantity: qty,
		BuyPrice: buyPrice,
		BuyDate:  time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
	}

	rest := fields[3:]
	if len(rest) > 0 {
		if d, err := time.Parse(types.DateLayout, rest[0]); err == nil {
			in.BuyDate = d
			rest = rest[1:]
		}
	}
	in.Name = strings.Join(rest, " ")
	return in, nil
}

// Add records a purchase for the chat
func (d *Dashboard) Add(ctx context.Context, chatID int64, args string) Reply {
	in, err := ParseAdd(args, d.now())
	if err != nil {
		return text(esc(err.Error()))
	}

	h, err := d.edits.AddHolding(ctx, d.sessions.Get(chatID), in)
	if err != nil {
		return text(esc(err.Error()))
	}

	return text(fmt.Sprintf("✅ Added %s %s \\(%s\\) at %s on %s\\. Current price: %s",
		esc(helpers.FormatQuantity(h.Quantity)),
		bold(h.Name),
		esc(h.Ticker),
		money(h.BuyPrice),
		esc(helpers.FormatDate(h.BuyDate)),
		money(h.CurrentPrice),
	))
}

// Undo deletes the most recent purchase
func (d *Dashboard) Undo(chatID int64) Reply {
	h, ok := d.edits.DeleteLastHolding(d.sessions.Get(chatID))
	if !ok {
		return text(esc(translation.Translate("No stocks to delete.")))
	}
	return text(fmt.Sprintf("🗑 Deleted last purchase: %s %s \\(%s\\)",
		esc(helpers.FormatQuantity(h.Quantity)), bold(h.Name), esc(h.Ticker)))
}

// Clear removes every purchase
func (d *Dashboard) Clear(chatID int64) Reply {
	n := d.edits.RemoveAllHoldings(d.sessions.Get(chatID))
	if n == 0 {
		return text(esc(translation.Translate("No stocks to remove.")))
	}
	return text(esc(fmt.Sprintf("🗑 Removed all %d purchases.", n)))
}

// Holdings shows positions aggregated by name and ticker
func (d *Dashboard) Holdings(chatID int64) Reply {
	positions := valuation.Aggregate(d.sessions.Get(chatID).Holdings())
	if len(positions) == 0 {
		return text(esc(translation.Translate("Your portfolio is empty. Add a stock with /add.")))
	}

	var b strings.Builder
	b.WriteString(bold("Portfolio Holdings") + "\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "\n%s \\(%s\\)\n", bold(p.Name), esc(p.Ticker))
		fmt.Fprintf(&b, "Qty: %s · Avg buy: %s · Now: %s\n",
			esc(helpers.FormatQuantity(p.Quantity)), money(p.AvgBuyPrice), money(p.CurrentPrice))
		fmt.Fprintf(&b, "Cost: %s · Value: %s · P/L: %s %s\n",
			money(p.TotalCost), money(p.MarketValue()),
			percent(valuation.ProfitPct(p.AvgBuyPrice, p.CurrentPrice)),
			helpers.ChangeIcon(p.CurrentPrice.Sub(p.AvgBuyPrice)))
		fmt.Fprintf(&b, "Since: %s\n", esc(helpers.FormatDate(p.BuyDate)))
	}

	cost, value := valuation.Totals(positions)
	fmt.Fprintf(&b, "\nTotal cost: %s\nTotal value: %s \\(%s\\)",
		bold(helpers.FormatMoney(cost)),
		bold(helpers.FormatMoney(value)),
		percent(valuation.ProfitPct(cost, value)))
	return text(b.String())
}

// Purchases lists every buy in the order it was entered
func (d *Dashboard) Purchases(chatID int64) Reply {
	purchases := valuation.Purchases(d.sessions.Get(chatID).Holdings())
	if len(purchases) == 0 {
		return text(esc(translation.Translate("No purchases recorded yet.")))
	}

	var b strings.Builder
	b.WriteString(bold("Individual Purchases") + "\n")
	for _, p := range purchases {
		fmt.Fprintf(&b, "\n%s\\. %s \\(%s\\) %s × %s on %s → %s %s",
			esc(strconv.FormatInt(p.Seq, 10)),
			bold(p.Name),
			esc(p.Ticker),
			esc(helpers.FormatQuantity(p.Quantity)),
			money(p.BuyPrice),
			esc(helpers.FormatDate(p.BuyDate)),
			money(p.CurrentPrice),
			percent(p.ProfitPct),
		)
	}
	return text(b.String())
}

// Value charts total portfolio value over the requested timeframe
func (d *Dashboard) Value(ctx context.Context, chatID int64, args string) Reply {
	tf, err := valuation.ParseTimeframe(args)
	if err != nil {
		return text(esc(translation.Translate("timeframe_usage")))
	}

	state := d.sessions.Get(chatID)
	holdings := state.Holdings()
	if len(holdings) == 0 {
		return text(esc(translation.Translate("Your portfolio is empty. Add a stock with /add.")))
	}

	key := chartKey("value", chatID, state.Generation(), tf.Key, holdings)
	if cached, found := d.charts.get(key); found {
		log.Debugf("returning cached value chart for %s", key)
		return Reply{Photo: cached.ChartData, Text: cached.Caption}
	}

	v := d.engine.Value(ctx, holdings, tf)
	if len(v.Series) == 0 {
		return text(esc(translation.Translate("No historical data available for your holdings.")) + warningLines(v.Warnings))
	}

	last := v.Series[len(v.Series)-1]
	caption := fmt.Sprintf("%s\nLatest: %s on %s\nChange: %s %s",
		bold(fmt.Sprintf("Portfolio Value (%s)", tf.Label)),
		money(last.Value),
		esc(helpers.FormatDate(last.Date)),
		percent(v.ChangePct),
		helpers.ChangeIcon(v.ChangePct),
	) + warningLines(v.Warnings)

	img, err := chart.PortfolioValue(v.Series, tf.Label)
	if err != nil {
		log.Warnf("value chart for chat %d not rendered: %v", chatID, err)
		return text(caption)
	}

	if len(v.Warnings) == 0 {
		d.charts.set(key, img, caption)
	}
	return Reply{Photo: img, Text: caption}
}

// Performance charts each held ticker's closes over the requested timeframe
func (d *Dashboard) Performance(ctx context.Context, chatID int64, args string) Reply {
	tf, err := valuation.ParseTimeframe(args)
	if err != nil {
		return text(esc(translation.Translate("timeframe_usage")))
	}

	state := d.sessions.Get(chatID)
	holdings := state.Holdings()
	if len(holdings) == 0 {
		return text(esc(translation.Translate("Your portfolio is empty. Add a stock with /add.")))
	}

	key := chartKey("performance", chatID, state.Generation(), tf.Key, holdings)
	if cached, found := d.charts.get(key); found {
		return Reply{Photo: cached.ChartData, Text: cached.Caption}
	}

	v := d.engine.Value(ctx, holdings, tf)
	var b strings.Builder
	b.WriteString(bold(fmt.Sprintf("Individual Stock Performance (%s)", tf.Label)))
	for _, s := range v.PerTicker {
		if len(s.Bars) == 0 {
			continue
		}
		first, last := s.Bars[0].Close, s.Bars[len(s.Bars)-1].Close
		change := valuation.ProfitPct(first, last)
		fmt.Fprintf(&b, "\n%s %s → %s %s", esc(s.Ticker), money(first), money(last), percent(change))
	}
	caption := b.String() + warningLines(v.Warnings)

	img, err := chart.Performance(v.PerTicker)
	if err != nil {
		log.Warnf("performance chart for chat %d not rendered: %v", chatID, err)
		return text(caption)
	}
	if len(v.Warnings) == 0 {
		d.charts.set(key, img, caption)
	}
	return Reply{Photo: img, Text: caption}
}

// Export sends the holdings as a CSV download
func (d *Dashboard) Export(chatID int64) Reply {
	holdings := d.sessions.Get(chatID).Holdings()
	if len(holdings) == 0 {
		return text(esc(translation.Translate("No stocks to export.")))
	}

	data, err := export.CSV(holdings)
	if err != nil {
		log.Errorf("csv export for chat %d failed: %v", chatID, err)
		return text(esc(translation.Translate("Export failed. Please try again later.")))
	}
	return Reply{
		Document: data,
		FileName: export.FileName,
		Text:     esc(fmt.Sprintf("Portfolio export: %d purchases", len(holdings))),
	}
}
