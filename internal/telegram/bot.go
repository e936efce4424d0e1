package telegram

import (
	"context"
	"regexp"
	"strings"

	"portfolio-dashboard-bot/internal/commands"
	"portfolio-dashboard-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, d *commands.Dashboard) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:       bot,
		Config:    c,
		dashboard: d,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// SendReply delivers a command reply as a photo, a document or plain text
func (b *Bot) SendReply(chatID int64, replyTo int, r commands.Reply) error {
	switch {
	case r.Photo != nil:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  "chart.png",
			Bytes: r.Photo,
		})
		photo.Caption = r.Text
		photo.ParseMode = "MarkdownV2"
		photo.ReplyToMessageID = replyTo
		_, err := b.Bot.Send(photo)
		return errors.Wrap(err, "error sending chart")
	case r.Document != nil:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  r.FileName,
			Bytes: r.Document,
		})
		doc.Caption = r.Text
		doc.ParseMode = "MarkdownV2"
		doc.ReplyToMessageID = replyTo
		_, err := b.Bot.Send(doc)
		return errors.Wrap(err, "error sending document")
	case r.Text == "":
		return nil
	}
	return b.SendMessage(Message{ChatID: chatID, MessageID: replyTo, Text: r.Text})
}

// NotifyFired tells a chat that some of its alerts triggered
func (b *Bot) NotifyFired(chatID int64, fired []types.SentAlert) {
	if len(fired) == 0 {
		return
	}
	if err := b.SendMessage(Message{ChatID: chatID, Text: commands.FiredMessage(fired)}); err != nil {
		log.Errorf("failed to notify chat %d about fired alerts: %v", chatID, err)
	}
}

var argumentsPattern = regexp.MustCompile(`^(\S+)\s*(.+)?$`)

// ParseArguments splits command arguments into the first word and the rest
func ParseArguments(args string) (string, string) {
	matches := argumentsPattern.FindStringSubmatch(strings.TrimSpace(args))

	if len(matches) >= 2 {
		first := matches[1]
		rest := ""
		if len(matches) == 3 {
			rest = strings.TrimSpace(matches[2])
		}
		return first, rest
	}
	return "", ""
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) commands.Reply {
	chatID := u.Message.Chat.ID
	args := u.Message.CommandArguments()
	log.Debugf("received command: %s from chat %d", u.Message.Command(), chatID)

	d := b.dashboard
	switch u.Message.Command() {
	case "start":
		return d.Start(chatID)
	case "end":
		return d.End(chatID)
	case "add":
		return d.Add(ctx, chatID, args)
	case "undo":
		return d.Undo(chatID)
	case "clear":
		return d.Clear(chatID)
	case "holdings":
		return d.Holdings(chatID)
	case "purchases":
		return d.Purchases(chatID)
	case "value":
		return d.Value(ctx, chatID, args)
	case "performance":
		return d.Performance(ctx, chatID, args)
	case "export":
		return d.Export(chatID)
	case "watch":
		return d.Watch(ctx, chatID, args)
	case "resetwatch":
		return d.ResetWatch(chatID)
	case "alert":
		if first, _ := ParseArguments(args); strings.EqualFold(first, "list") {
			return d.AlertList(chatID)
		}
		return d.SetAlert(chatID, args)
	case "unalert":
		return d.RemoveAlert(chatID, args)
	case "alerts":
		return d.CheckAlerts(ctx, chatID)
	case "sent":
		return d.Sent(chatID)
	case "email":
		return d.Email(chatID, args)
	case "sentiment":
		return d.Sentiment(ctx, args)
	}

	// $TICKER is a shortcut for the sentiment summary
	if text := u.Message.Text; text != "" && text[0] == '$' {
		ticker, _ := ParseArguments(text[1:])
		return d.Sentiment(ctx, ticker)
	}

	return d.Help()
}
