package commands

import (
	"time"

	"portfolio-dashboard-bot/internal/alert"
	"portfolio-dashboard-bot/internal/news"
	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/session"
	"portfolio-dashboard-bot/internal/valuation"
	"portfolio-dashboard-bot/internal/watchlist"
	"portfolio-dashboard-bot/lib/translation"
)

// Reply is what a command sends back. Text is MarkdownV2 and doubles as the
// caption when a photo or document is attached.
type Reply struct {
	Text     string
	Photo    []byte
	Document []byte
	FileName string
}

func text(s string) Reply {
	return Reply{Text: s}
}

// Config wires the dashboard to its collaborators
type Config struct {
	Provider     price.Provider
	Sessions     *session.Store
	Engine       *valuation.Engine
	Evaluator    *alert.Evaluator
	Watchlist    *watchlist.Calculator
	News         *news.Summarizer
	EmailEnabled bool
	Now          func() time.Time
}

// Dashboard turns chat commands into replies against a user's session
type Dashboard struct {
	sessions     *session.Store
	edits        *session.Commands
	engine       *valuation.Engine
	evaluator    *alert.Evaluator
	watch        *watchlist.Calculator
	news         *news.Summarizer
	emailEnabled bool
	charts       *chartCache
	now          func() time.Time
}

func NewDashboard(c Config) *Dashboard {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Engine == nil {
		c.Engine = valuation.NewEngine(c.Provider, valuation.WithClock(c.Now))
	}
	if c.Evaluator == nil {
		c.Evaluator = alert.NewEvaluator(c.Provider, alert.WithClock(c.Now))
	}
	if c.Watchlist == nil {
		c.Watchlist = watchlist.NewCalculator(c.Provider, c.Now)
	}
	if c.News == nil {
		c.News = news.NewSummarizer(nil, nil, false)
	}
	if c.Sessions == nil {
		c.Sessions = session.NewStore()
	}
	return &Dashboard{
		sessions:     c.Sessions,
		edits:        session.NewCommands(c.Provider),
		engine:       c.Engine,
		evaluator:    c.Evaluator,
		watch:        c.Watchlist,
		news:         c.News,
		emailEnabled: c.EmailEnabled,
		charts:       newChartCache(chartCacheTTL),
		now:          c.Now,
	}
}

// Sessions exposes the store for the alert service
func (d *Dashboard) Sessions() *session.Store {
	return d.sessions
}

// Help lists the available commands
func (d *Dashboard) Help() Reply {
	return text(translation.Translate("Command help message"))
}

// Start greets the user and opens their session
func (d *Dashboard) Start(chatID int64) Reply {
	d.sessions.Get(chatID)
	return text(translation.Translate("Welcome message") + "\n\n" + translation.Translate("Command help message"))
}

// End discards everything stored for the chat
func (d *Dashboard) End(chatID int64) Reply {
	d.sessions.End(chatID)
	return text(esc(translation.Translate("Session ended. All holdings, alerts and watchlist changes were discarded.")))
}
