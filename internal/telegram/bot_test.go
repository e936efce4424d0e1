package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"portfolio-dashboard-bot/internal/commands"
	"portfolio-dashboard-bot/internal/price/pricetest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		args  string
		first string
		rest  string
	}{
		{"AAPL above 200", "AAPL", "above 200"},
		{"list", "list", ""},
		{"  msft   30d ", "msft", "30d"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, rest := ParseArguments(tt.args)
		assert.Equal(t, tt.first, first, tt.args)
		assert.Equal(t, tt.rest, rest, tt.args)
	}
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func testBot(fake *pricetest.Fake) *Bot {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	return &Bot{dashboard: commands.NewDashboard(commands.Config{
		Provider: fake,
		Now:      func() time.Time { return now },
	})}
}

func TestHandleUpdateDispatch(t *testing.T) {
	fake := pricetest.NewFake().SetPrices("AAPL", 190.5)
	b := testBot(fake)
	ctx := context.Background()

	r := b.HandleUpdate(ctx, commandUpdate(1, "/add AAPL 3 150 2025-01-10 Apple"))
	assert.Contains(t, r.Text, "Added 3 *Apple*")

	r = b.HandleUpdate(ctx, commandUpdate(1, "/holdings"))
	assert.Contains(t, r.Text, "*Portfolio Holdings*")

	r = b.HandleUpdate(ctx, commandUpdate(2, "/holdings"))
	assert.Contains(t, r.Text, "portfolio is empty", "sessions are per chat")

	r = b.HandleUpdate(ctx, commandUpdate(1, "/alert AAPL above 200"))
	assert.Contains(t, r.Text, "Alert set")

	r = b.HandleUpdate(ctx, commandUpdate(1, "/alert list"))
	assert.Contains(t, r.Text, "*Active Alerts*")

	r = b.HandleUpdate(ctx, commandUpdate(1, "/export"))
	assert.Equal(t, "portfolio.csv", r.FileName)

	r = b.HandleUpdate(ctx, commandUpdate(1, "/unknown"))
	assert.Equal(t, b.dashboard.Help(), r)

	r = b.HandleUpdate(ctx, commandUpdate(1, "$AAPL"))
	assert.Contains(t, r.Text, "no news API key")
}
