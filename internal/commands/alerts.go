package commands

import (
	"context"
	"fmt"
	"strings"

	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/lib/translation"

	"github.com/shopspring/decimal"
)

// ParseAlert reads "<ticker> <above|below> <price>"
func ParseAlert(args string) (ticker string, dir types.Direction, target decimal.Decimal, ok bool) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "", 0, decimal.Zero, false
	}
	dir, err := types.ParseDirection(fields[1])
	if err != nil {
		return "", 0, decimal.Zero, false
	}
	target, err = decimal.NewFromString(strings.TrimPrefix(fields[2], "$"))
	if err != nil {
		return "", 0, decimal.Zero, false
	}
	return fields[0], dir, target, true
}

// SetAlert adds or replaces the rule for a ticker
func (d *Dashboard) SetAlert(chatID int64, args string) Reply {
	ticker, dir, target, ok := ParseAlert(args)
	if !ok {
		return text(esc(translation.Translate("alert_command_usage")))
	}

	s := d.sessions.Get(chatID)
	rule, err := d.edits.AddAlertRule(s, ticker, target, dir, d.now())
	if err != nil {
		return text(esc(err.Error()))
	}

	reply := fmt.Sprintf("🔔 Alert set: %s %s %s",
		bold(rule.Ticker), esc(strings.ToLower(rule.Direction.String())), money(rule.TargetPrice))
	if s.Email() == "" {
		reply += "\n" + esc(translation.Translate("No email set. Triggered alerts will only be shown here. Use /email to add one."))
	}
	return text(reply)
}

// AlertList shows the active rules without checking prices
func (d *Dashboard) AlertList(chatID int64) Reply {
	rules := d.sessions.Get(chatID).Alerts().Rules()
	if len(rules) == 0 {
		return text(esc(translation.Translate("No active alerts.")))
	}

	var b strings.Builder
	b.WriteString(bold("Active Alerts") + "\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "\n• %s %s %s, set %s",
			bold(r.Ticker), esc(strings.ToLower(r.Direction.String())), money(r.TargetPrice),
			esc(r.CreatedAt.Format("2006-01-02 15:04")))
	}
	return text(b.String())
}

// RemoveAlert deletes the rule for a ticker
func (d *Dashboard) RemoveAlert(chatID int64, args string) Reply {
	ticker := strings.TrimSpace(args)
	if ticker == "" {
		return text(esc(translation.Translate("unalert_command_usage")))
	}
	if err := d.edits.RemoveAlertRule(d.sessions.Get(chatID), ticker); err != nil {
		return text(esc(err.Error()))
	}
	return text(fmt.Sprintf("🔕 Alert for %s removed\\.", bold(types.NormalizeTicker(ticker))))
}

// CheckAlerts evaluates every rule against live quotes, firing those that are met
func (d *Dashboard) CheckAlerts(ctx context.Context, chatID int64) Reply {
	s := d.sessions.Get(chatID)
	if s.Alerts().Len() == 0 {
		return text(esc(translation.Translate("No active alerts.")))
	}

	statuses, fired := d.evaluator.Evaluate(ctx, s.Alerts(), s.Email())

	var b strings.Builder
	b.WriteString(bold("Alert Status") + "\n")
	for _, st := range statuses {
		fmt.Fprintf(&b, "\n%s %s %s: ", bold(st.Rule.Ticker),
			esc(strings.ToLower(st.Rule.Direction.String())), money(st.Rule.TargetPrice))
		switch {
		case !st.Available:
			b.WriteString(esc("N/A"))
		case st.Triggered:
			b.WriteString(fmt.Sprintf("%s ✅ triggered", money(st.Price)))
		default:
			b.WriteString(fmt.Sprintf("%s ⏳ waiting", money(st.Price)))
		}
	}
	if len(fired) > 0 {
		b.WriteString("\n\n" + FiredMessage(fired))
	}
	return text(b.String())
}

// Sent lists alerts that have already fired
func (d *Dashboard) Sent(chatID int64) Reply {
	sent := d.sessions.Get(chatID).Alerts().Sent()
	if len(sent) == 0 {
		return text(esc(translation.Translate("No alerts have been sent yet.")))
	}

	var b strings.Builder
	b.WriteString(bold("Sent Alerts") + "\n")
	for _, sa := range sent {
		fmt.Fprintf(&b, "\n• %s hit %s \\(target %s %s\\) at %s",
			bold(sa.Ticker), money(sa.PriceAtTrigger),
			esc(strings.ToLower(sa.Direction.String())), money(sa.TargetPrice),
			esc(sa.TriggeredAt.Format("2006-01-02 15:04")))
	}
	return text(b.String())
}

// FiredMessage announces alerts that just triggered
func FiredMessage(fired []types.SentAlert) string {
	var b strings.Builder
	for i, sa := range fired {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "📈 %s has hit %s\\! Target was %s %s\\.",
			bold(sa.Ticker), money(sa.PriceAtTrigger),
			esc(strings.ToLower(sa.Direction.String())), money(sa.TargetPrice))
	}
	return b.String()
}

// Email sets or shows the alert recipient. "off" clears it.
func (d *Dashboard) Email(chatID int64, args string) Reply {
	s := d.sessions.Get(chatID)
	address := strings.TrimSpace(args)

	if address == "" {
		if s.Email() == "" {
			return text(esc(translation.Translate("email_command_usage")))
		}
		return text("📧 Alerts are sent to " + esc(s.Email()))
	}
	if strings.EqualFold(address, "off") {
		address = ""
	}

	if err := d.edits.SetEmail(s, address); err != nil {
		return text(esc(err.Error()))
	}
	if s.Email() == "" {
		return text(esc(translation.Translate("Email notifications turned off.")))
	}

	reply := "📧 Alerts will be sent to " + esc(s.Email())
	if !d.emailEnabled {
		reply += "\n" + esc(translation.Translate("Email delivery is not configured on this bot, alerts will only be shown here."))
	}
	return text(reply)
}
