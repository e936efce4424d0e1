package session

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/internal/watchlist"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ValidationError reports bad user input. State is left unchanged.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

const maxTickerLen = 10

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]*$`)

// ValidateTicker normalizes and checks a symbol
func ValidateTicker(raw string) (string, error) {
	t := types.NormalizeTicker(raw)
	if t == "" {
		return "", invalid("Please enter a ticker symbol.")
	}
	if len(t) > maxTickerLen || !tickerPattern.MatchString(t) {
		return "", invalid("Invalid ticker symbol %q.", raw)
	}
	return t, nil
}

// NewHolding is the add-stock form
type NewHolding struct {
	Name     string
	Ticker   string
	Quantity int64
	BuyPrice decimal.Decimal
	BuyDate  time.Time
}

// Commands mutates session state, checking input against the quote provider
type Commands struct {
	provider price.Provider
}

func NewCommands(p price.Provider) *Commands {
	return &Commands{provider: p}
}

// AddHolding records a purchase. The ticker must resolve to a current price,
// which is stored with the holding.
func (c *Commands) AddHolding(ctx context.Context, s *State, in NewHolding) (types.Holding, error) {
	ticker, err := ValidateTicker(in.Ticker)
	if err != nil {
		return types.Holding{}, err
	}
	if in.Quantity < 1 {
		return types.Holding{}, invalid("Quantity must be at least 1.")
	}
	if !in.BuyPrice.IsPositive() {
		return types.Holding{}, invalid("Buy price must be positive.")
	}
	if in.BuyDate.IsZero() {
		return types.Holding{}, invalid("Buy date is required.")
	}

	current, err := c.provider.CurrentPrice(ctx, ticker)
	if err != nil || !current.IsPositive() {
		log.Warnf("rejecting holding %s: no current price: %v", ticker, err)
		return types.Holding{}, invalid("Invalid ticker symbol %s. Please try again.", ticker)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = ticker
	}

	return s.appendHolding(types.Holding{
		Name:         name,
		Ticker:       ticker,
		Quantity:     in.Quantity,
		BuyPrice:     in.BuyPrice.Round(2),
		BuyDate:      in.BuyDate,
		CurrentPrice: current,
	}), nil
}

// DeleteLastHolding removes the most recent purchase
func (c *Commands) DeleteLastHolding(s *State) (types.Holding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.holdings) == 0 {
		return types.Holding{}, false
	}
	last := s.holdings[len(s.holdings)-1]
	s.holdings = s.holdings[:len(s.holdings)-1]
	return last, true
}

// RemoveAllHoldings clears the portfolio and reports how many were removed
func (c *Commands) RemoveAllHoldings(s *State) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.holdings)
	s.holdings = nil
	return n
}

// AddToWatchlist appends ticker unless it is already watched
func (c *Commands) AddToWatchlist(s *State, raw string) (string, error) {
	ticker, err := ValidateTicker(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.watchlist {
		if t == ticker {
			return "", invalid("%s is already in the Watchlist!", ticker)
		}
	}
	s.watchlist = append(s.watchlist, ticker)
	return ticker, nil
}

// ResetWatchlist restores the default tickers
func (c *Commands) ResetWatchlist(s *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlist = append([]string(nil), watchlist.Default...)
}

// AddAlertRule sets the rule for a ticker, replacing any existing one
func (c *Commands) AddAlertRule(s *State, rawTicker string, target decimal.Decimal, dir types.Direction, now time.Time) (types.AlertRule, error) {
	ticker, err := ValidateTicker(rawTicker)
	if err != nil {
		return types.AlertRule{}, err
	}
	if !target.IsPositive() {
		return types.AlertRule{}, invalid("Target price must be positive.")
	}
	if dir != types.Above && dir != types.Below {
		return types.AlertRule{}, invalid("Alert type must be Above or Below.")
	}
	rule := types.AlertRule{Ticker: ticker, TargetPrice: target.Round(2), Direction: dir, CreatedAt: now}
	s.alerts.Set(rule)
	return rule, nil
}

// RemoveAlertRule deletes the rule for a ticker
func (c *Commands) RemoveAlertRule(s *State, rawTicker string) error {
	ticker := types.NormalizeTicker(rawTicker)
	if !s.alerts.Remove(ticker) {
		return invalid("No active alert for %s.", ticker)
	}
	return nil
}

// SetEmail sets or clears (empty address) the alert recipient
func (c *Commands) SetEmail(s *State, address string) error {
	address = strings.TrimSpace(address)
	if address != "" {
		parsed, err := mail.ParseAddress(address)
		if err != nil {
			return invalid("Invalid email address %q.", address)
		}
		address = parsed.Address
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = address
	return nil
}
