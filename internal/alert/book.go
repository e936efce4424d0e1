package alert

import (
	"sort"
	"sync"

	"portfolio-dashboard-bot/internal/types"
)

// Book holds one user's active alert rules, one per ticker, and the
// append-only log of alerts that fired.
type Book struct {
	mu    sync.Mutex
	rules map[string]types.AlertRule
	sent  []types.SentAlert
}

func NewBook() *Book {
	return &Book{rules: make(map[string]types.AlertRule)}
}

// Set stores rule, replacing any previous rule for the same ticker
func (b *Book) Set(rule types.AlertRule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules[rule.Ticker] = rule
}

// Remove deletes the rule for ticker and reports whether one existed
func (b *Book) Remove(ticker string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.rules[ticker]
	delete(b.rules, ticker)
	return ok
}

// Get returns the active rule for ticker
func (b *Book) Get(ticker string) (types.AlertRule, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rules[ticker]
	return r, ok
}

// Rules returns the active rules sorted by ticker
func (b *Book) Rules() []types.AlertRule {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.AlertRule, 0, len(b.rules))
	for _, r := range b.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Sent returns a copy of the fired alerts, oldest first
func (b *Book) Sent() []types.SentAlert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.SentAlert(nil), b.sent...)
}

// Len is the number of active rules
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rules)
}

// fire removes rule and logs sa in one step. It returns false when the rule
// was replaced or removed since it was read, so a rule can fire only once.
func (b *Book) fire(rule types.AlertRule, sa types.SentAlert) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.rules[rule.Ticker]
	if !ok || !current.TargetPrice.Equal(rule.TargetPrice) || current.Direction != rule.Direction || !current.CreatedAt.Equal(rule.CreatedAt) {
		return false
	}
	delete(b.rules, rule.Ticker)
	b.sent = append(b.sent, sa)
	return true
}
