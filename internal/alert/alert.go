package alert

import (
	"context"
	"sync"
	"time"

	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers a fired alert to a recipient
type Notifier interface {
	Send(ctx context.Context, to, ticker string, price, target decimal.Decimal) error
}

// Status is the outcome of evaluating one rule
type Status struct {
	Rule      types.AlertRule
	Price     decimal.Decimal
	Available bool
	Triggered bool
}

// Evaluator compares alert rules with live quotes
type Evaluator struct {
	provider  price.Provider
	notifier  Notifier
	now       func() time.Time
	onTrigger func(types.SentAlert)
}

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithNotifier sets the notifier used for configured recipients
func WithNotifier(n Notifier) EvaluatorOption {
	return func(e *Evaluator) { e.notifier = n }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// WithTriggerHook is called once per fired alert
func WithTriggerHook(fn func(types.SentAlert)) EvaluatorOption {
	return func(e *Evaluator) { e.onTrigger = fn }
}

func NewEvaluator(p price.Provider, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{provider: p, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate checks every active rule of book once. Rules without a price are
// kept for the next cycle. A satisfied rule is moved to the sent log and, when
// recipient is set, delivered through the notifier. Notifier errors are logged.
func (e *Evaluator) Evaluate(ctx context.Context, book *Book, recipient string) ([]Status, []types.SentAlert) {
	rules := book.Rules()
	statuses := make([]Status, 0, len(rules))
	var fired []types.SentAlert

	for _, rule := range rules {
		st := Status{Rule: rule}
		p, err := e.provider.CurrentPrice(ctx, rule.Ticker)
		if err != nil {
			log.Warnf("no price for alert on %s: %v", rule.Ticker, err)
			statuses = append(statuses, st)
			continue
		}
		st.Price, st.Available = p, true

		log.Debugf("checking alert %s %s %s against %s", rule.Ticker, rule.Direction, rule.TargetPrice, p)

		if rule.Direction.Satisfied(p, rule.TargetPrice) {
			sa := types.SentAlert{
				Ticker:         rule.Ticker,
				TargetPrice:    rule.TargetPrice,
				Direction:      rule.Direction,
				PriceAtTrigger: p,
				TriggeredAt:    e.now(),
			}
			if book.fire(rule, sa) {
				st.Triggered = true
				fired = append(fired, sa)
				e.deliver(ctx, recipient, sa)
			}
		}
		statuses = append(statuses, st)
	}

	return statuses, fired
}

func (e *Evaluator) deliver(ctx context.Context, recipient string, sa types.SentAlert) {
	if e.onTrigger != nil {
		e.onTrigger(sa)
	}
	if recipient == "" || e.notifier == nil {
		log.Infof("alert for %s recorded without email: no recipient", sa.Ticker)
		return
	}
	if err := e.notifier.Send(ctx, recipient, sa.Ticker, sa.PriceAtTrigger, sa.TargetPrice); err != nil {
		log.Errorf("failed to send alert email for %s to %s: %v", sa.Ticker, recipient, err)
		return
	}
	log.Infof("alert email for %s sent to %s", sa.Ticker, recipient)
}

// Target is one user whose rules are checked by the Service
type Target struct {
	ChatID    int64
	Book      *Book
	Recipient string
}

// Service re-evaluates every user's rules on an interval
type Service struct {
	evaluator *Evaluator
	targets   func() []Target
	onFired   func(chatID int64, fired []types.SentAlert)
	interval  time.Duration

	// only one evaluation pass runs at a time
	processing sync.Mutex
}

func NewService(e *Evaluator, targets func() []Target, onFired func(int64, []types.SentAlert), interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Service{evaluator: e, targets: targets, onFired: onFired, interval: interval}
}

// RunOnce evaluates all targets a single time
func (s *Service) RunOnce(ctx context.Context) {
	s.processing.Lock()
	defer s.processing.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic recovered in alert checker: %v", r)
		}
	}()

	log.Debug("checking alerts...")
	for _, t := range s.targets() {
		if t.Book == nil || t.Book.Len() == 0 {
			continue
		}
		_, fired := s.evaluator.Evaluate(ctx, t.Book, t.Recipient)
		if len(fired) > 0 && s.onFired != nil {
			s.onFired(t.ChatID, fired)
		}
	}
	log.Debug("alert check completed")
}

// Start runs the check loop until ctx is done
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
	log.Info("alert service started")
}
