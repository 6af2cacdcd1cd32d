package telegram

import (
	"bytes"
	"context"
	"runtime"

	"crypto-tracker-bot/internal/commands"
	"crypto-tracker-bot/internal/metrics"
	"crypto-tracker-bot/internal/types"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

type Sender interface {
	SendMessage(m Message) error
}

type Handler interface {
	Handle(ctx context.Context, req commands.Request) (string, error)
}

// Dispatcher routes command messages to the handler and replies in the same chat
type Dispatcher struct {
	sender  Sender
	handler Handler
	metrics *metrics.BotMetrics
}

func NewDispatcher(sender Sender, handler Handler, m *metrics.BotMetrics) *Dispatcher {
	if m == nil {
		m = metrics.Discard()
	}
	return &Dispatcher{sender: sender, handler: handler, metrics: m}
}

// Run handles updates one at a time until ctx is done or the channel closes
func (d *Dispatcher) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.HandleUpdate(ctx, update)
		}
	}
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		if log.IsLevelEnabled(log.TraceLevel) {
			log.Trace(spew.Sdump(update))
		} else {
			log.Debug("Received non-message or non-command")
		}
		return
	}

	d.metrics.MessagesHandled.Inc()

	msg := update.Message
	req := commands.Request{
		ChatID:  msg.Chat.ID,
		Command: msg.Command(),
		Args:    msg.CommandArguments(),
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
		req.FirstName = msg.From.FirstName
	}

	entry := log.WithFields(log.Fields{"chat_id": req.ChatID, "command": req.Command})

	text, err := d.handler.Handle(ctx, req)
	switch {
	case err == nil:
	case types.IsUserInput(err):
		entry.Debugf("Rejected command: %v", err)
	default:
		entry.Errorf("Command failed: %v", err)
	}

	if text == "" {
		return
	}

	if err := d.sender.SendMessage(Message{ChatID: req.ChatID, MessageID: msg.MessageID, Text: text}); err != nil {
		entry.Errorf("Failed to send message: %v", err)
		return
	}
	d.metrics.CommandsProcessed.Inc()
}
