package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-dashboard-bot/internal/price/pricetest"
	"portfolio-dashboard-bot/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to, ticker    string
	price, target decimal.Decimal
}

type fakeNotifier struct {
	sent []sentEmail
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, to, ticker string, price, target decimal.Decimal) error {
	f.sent = append(f.sent, sentEmail{to: to, ticker: ticker, price: price, target: target})
	return f.err
}

func rule(ticker string, target int64, dir types.Direction) types.AlertRule {
	return types.AlertRule{Ticker: ticker, TargetPrice: decimal.NewFromInt(target), Direction: dir}
}

func TestEvaluateAboveTriggersOnce(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("AAPL", 190, 199, 200, 205)
	notifier := &fakeNotifier{}
	e := NewEvaluator(fake, WithNotifier(notifier))

	book := NewBook()
	book.Set(rule("AAPL", 200, types.Above))

	var fired []types.SentAlert
	for i := 0; i < 4; i++ {
		_, f := e.Evaluate(context.Background(), book, "me@example.com")
		fired = append(fired, f...)
	}

	require.Len(t, fired, 1)
	assert.True(t, fired[0].PriceAtTrigger.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, types.Above, fired[0].Direction)

	_, active := book.Get("AAPL")
	assert.False(t, active)
	assert.Equal(t, fired, book.Sent())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "me@example.com", notifier.sent[0].to)
	assert.True(t, notifier.sent[0].target.Equal(decimal.NewFromInt(200)))
}

func TestEvaluateBelowNotSatisfied(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("TSLA", 160)
	e := NewEvaluator(fake)

	book := NewBook()
	book.Set(rule("TSLA", 150, types.Below))

	for i := 0; i < 3; i++ {
		statuses, fired := e.Evaluate(context.Background(), book, "")
		assert.Empty(t, fired)
		require.Len(t, statuses, 1)
		assert.True(t, statuses[0].Available)
		assert.False(t, statuses[0].Triggered)
	}
	_, active := book.Get("TSLA")
	assert.True(t, active)
	assert.Empty(t, book.Sent())
}

func TestEvaluateUnavailablePriceKeepsRule(t *testing.T) {
	e := NewEvaluator(pricetest.NewFake())
	book := NewBook()
	book.Set(rule("ZZZZ", 10, types.Above))

	statuses, fired := e.Evaluate(context.Background(), book, "me@example.com")
	assert.Empty(t, fired)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Available)
	assert.Equal(t, 1, book.Len())
}

func TestEvaluateWithoutRecipientStillRecords(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("NVDA", 90)
	notifier := &fakeNotifier{}
	var hooked []types.SentAlert
	e := NewEvaluator(fake, WithNotifier(notifier), WithTriggerHook(func(sa types.SentAlert) {
		hooked = append(hooked, sa)
	}))

	book := NewBook()
	book.Set(rule("NVDA", 100, types.Below))

	_, fired := e.Evaluate(context.Background(), book, "")
	require.Len(t, fired, 1)
	assert.Empty(t, notifier.sent)
	assert.Len(t, book.Sent(), 1)
	assert.Len(t, hooked, 1)
}

func TestEvaluateNotifierFailureDoesNotBlock(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("MSFT", 500)
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	e := NewEvaluator(fake, WithNotifier(notifier))

	book := NewBook()
	book.Set(rule("MSFT", 400, types.Above))

	_, fired := e.Evaluate(context.Background(), book, "me@example.com")
	require.Len(t, fired, 1)
	assert.Len(t, notifier.sent, 1)
	assert.Len(t, book.Sent(), 1)
	assert.Equal(t, 0, book.Len())
}

func TestBookOneRulePerTicker(t *testing.T) {
	book := NewBook()
	book.Set(rule("AAPL", 200, types.Above))
	book.Set(rule("AAPL", 150, types.Below))
	book.Set(rule("MSFT", 300, types.Above))

	rules := book.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "AAPL", rules[0].Ticker)
	assert.Equal(t, types.Below, rules[0].Direction)

	assert.True(t, book.Remove("AAPL"))
	assert.False(t, book.Remove("AAPL"))
	assert.Equal(t, 1, book.Len())
}

func TestBookFireRejectsReplacedRule(t *testing.T) {
	book := NewBook()
	old := rule("AAPL", 200, types.Above)
	book.Set(old)
	book.Set(rule("AAPL", 250, types.Above))

	assert.False(t, book.fire(old, types.SentAlert{Ticker: "AAPL"}))
	assert.Equal(t, 1, book.Len())
	assert.Empty(t, book.Sent())
}

func TestServiceRunOnce(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("AAPL", 210)
	e := NewEvaluator(fake, WithClock(func() time.Time { return time.Unix(0, 0) }))

	withRules := NewBook()
	withRules.Set(rule("AAPL", 200, types.Above))
	targets := []Target{
		{ChatID: 1, Book: NewBook()},
		{ChatID: 2, Book: withRules},
	}

	got := map[int64][]types.SentAlert{}
	s := NewService(e, func() []Target { return targets }, func(chatID int64, fired []types.SentAlert) {
		got[chatID] = fired
	}, 0)
	s.RunOnce(context.Background())

	require.Len(t, got[2], 1)
	assert.Equal(t, time.Unix(0, 0), got[2][0].TriggeredAt)
	assert.NotContains(t, got, int64(1))
}
