package telegram

import (
	"context"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// UpdateSource delivers Telegram updates. Exactly one is chosen at startup.
type UpdateSource interface {
	// Start begins receiving updates until ctx is done
	Start(ctx context.Context) (tgbotapi.UpdatesChannel, error)
	// Register mounts any HTTP routes the source needs
	Register(mux *http.ServeMux)
}

// NewUpdateSource picks webhook delivery when webhookURL is set, long polling otherwise
func NewUpdateSource(b *Bot, webhookURL string) UpdateSource {
	if webhookURL != "" {
		return NewWebhookSource(b, webhookURL)
	}
	return &PollingSource{bot: b}
}

type PollingSource struct {
	bot *Bot
}

func (p *PollingSource) Start(ctx context.Context) (tgbotapi.UpdatesChannel, error) {
	// getUpdates is refused while a webhook is registered
	if _, err := p.bot.Bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, errors.Wrap(err, "could not delete webhook")
	}

	updatesConfig := tgbotapi.NewUpdate(0)
	if p.bot.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = p.bot.Config.UpdatesTimeout
	}
	updates := p.bot.Bot.GetUpdatesChan(updatesConfig)

	go func() {
		<-ctx.Done()
		p.bot.Bot.StopReceivingUpdates()
	}()

	log.Info("Receiving updates by long polling.")
	return updates, nil
}

func (p *PollingSource) Register(*http.ServeMux) {}

// WebhookSource receives updates on an HTTP route named after the bot token
type WebhookSource struct {
	bot     *Bot
	url     string
	path    string
	updates chan tgbotapi.Update
}

func NewWebhookSource(b *Bot, baseURL string) *WebhookSource {
	path := "/" + b.Config.Token
	return &WebhookSource{
		bot:     b,
		url:     strings.TrimRight(baseURL, "/") + path,
		path:    path,
		updates: make(chan tgbotapi.Update, b.Bot.Buffer),
	}
}

func (w *WebhookSource) Start(ctx context.Context) (tgbotapi.UpdatesChannel, error) {
	wh, err := tgbotapi.NewWebhook(w.url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook url")
	}
	if _, err := w.bot.Bot.Request(wh); err != nil {
		return nil, errors.Wrap(err, "could not register webhook")
	}

	log.Info("Receiving updates by webhook.")
	return w.updates, nil
}

func (w *WebhookSource) Register(mux *http.ServeMux) {
	mux.Handle(w.path, w)
}

func (w *WebhookSource) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	update, err := w.bot.Bot.HandleUpdate(r)
	if err != nil {
		log.Warnf("Rejected webhook request: %v", err)
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case w.updates <- *update:
		rw.WriteHeader(http.StatusOK)
	case <-r.Context().Done():
		http.Error(rw, "update not accepted", http.StatusServiceUnavailable)
	}
}
