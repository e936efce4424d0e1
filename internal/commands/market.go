package commands

import (
	"context"
	"fmt"
	"strings"

	"portfolio-dashboard-bot/internal/news"
	"portfolio-dashboard-bot/lib/helpers"
	"portfolio-dashboard-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Watch optionally adds a ticker, then shows the watchlist with today's moves
func (d *Dashboard) Watch(ctx context.Context, chatID int64, args string) Reply {
	s := d.sessions.Get(chatID)

	var notice string
	if strings.TrimSpace(args) != "" {
		added, err := d.edits.AddToWatchlist(s, args)
		if err != nil {
			notice = "⚠️ " + esc(err.Error()) + "\n\n"
		} else {
			notice = fmt.Sprintf("👀 Added %s to the Watchlist\\.\n\n", bold(added))
		}
	}

	title := "Watchlist (previous session)"
	if d.watch.InSession(d.now()) {
		title = "Watchlist (today)"
	}

	entries, warnings := d.watch.Compute(ctx, s.Watchlist())
	var b strings.Builder
	b.WriteString(notice + bold(title) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s %s %s %s", helpers.ChangeIcon(e.ChangePct), bold(e.Ticker), money(e.Price), percent(e.ChangePct.Round(2)))
	}
	return text(b.String() + warningLines(warnings))
}

// ResetWatch restores the default watchlist
func (d *Dashboard) ResetWatch(chatID int64) Reply {
	d.edits.ResetWatchlist(d.sessions.Get(chatID))
	return text(esc(fmt.Sprintf("Watchlist reset to %s.", strings.Join(d.sessions.Get(chatID).Watchlist(), ", "))))
}

// Sentiment summarizes recent news about a ticker
func (d *Dashboard) Sentiment(ctx context.Context, args string) Reply {
	if !d.news.Enabled() {
		return text(esc(translation.Translate("News sentiment is not available: no news API key is configured.")))
	}

	ticker := strings.TrimSpace(args)
	if ticker == "" {
		return text(esc(translation.Translate("sentiment_command_usage")))
	}

	summary, err := d.news.Summarize(ctx, ticker)
	if errors.Is(err, news.ErrDisabled) {
		return text(esc(translation.Translate("News sentiment is not available: no news API key is configured.")))
	}
	if err != nil {
		log.Errorf("sentiment for %s failed: %v", ticker, err)
		return text(esc(translation.Translate("Could not fetch news right now. Please try again later.")))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nOverall: %s %s \\(%s\\)\n",
		bold(fmt.Sprintf("News Sentiment for %s", summary.Ticker)),
		summary.Label.Icon(), bold(summary.Label.String()), esc(fmt.Sprintf("%.2f", summary.Score)))

	if len(summary.Articles) == 0 {
		b.WriteString("\n" + esc(fmt.Sprintf("No recent articles found for %s.", summary.Ticker)))
		return text(b.String())
	}
	for i, a := range summary.Articles {
		title := a.Title
		if title == "" {
			title = "(untitled)"
		}
		entry := esc(title)
		if a.URL != "" {
			entry = link(title, a.URL)
		}
		fmt.Fprintf(&b, "\n%d\\. %s %s %s", i+1, a.Label.Icon(), entry, esc(fmt.Sprintf("(%.2f)", a.Score)))
	}
	return text(b.String())
}
