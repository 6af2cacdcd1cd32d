package telegram

import (
	"context"
	"net/http"
	"time"

	"crypto-tracker-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const serviceName = "telegram"

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Duration(c.UpdatesTimeout+10) * time.Second}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Debugf("Authorized on account %s", bot.Self.UserName)

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// SetCommands publishes the command menu shown by Telegram clients
func (b *Bot) SetCommands() error {
	_, err := b.Bot.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "price", Description: "Get the current price of a coin"},
		tgbotapi.BotCommand{Command: "alert", Description: "Set a price alert"},
		tgbotapi.BotCommand{Command: "myalerts", Description: "View your active alerts"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel one of your alerts"},
		tgbotapi.BotCommand{Command: "news", Description: "Latest crypto news"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help"},
	))
	return errors.Wrap(err, "could not set bot commands")
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// Notify delivers a fired alert to its chat
func (b *Bot) Notify(ctx context.Context, n types.Notification) error {
	done := make(chan error, 1)
	go func() {
		done <- b.SendMessage(Message{ChatID: n.ChatID, Text: n.Text})
	}()

	select {
	case err := <-done:
		if err != nil {
			return types.NewExternalServiceError(serviceName, err)
		}
		return nil
	case <-ctx.Done():
		return types.NewExternalServiceError(serviceName, errors.Wrapf(ctx.Err(), "notify chat %d", n.ChatID))
	}
}
