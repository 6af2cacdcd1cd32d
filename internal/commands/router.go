package commands

import (
	"context"
	"strings"
	"time"

	"crypto-tracker-bot/internal/metrics"
	"crypto-tracker-bot/internal/types"
	"crypto-tracker-bot/lib/helpers"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	alertUsage  = "Usage: /alert SYMBOL PRICE [above|below], e.g. /alert btc 50000 above"
	cancelUsage = "Usage: /cancel ID, see /myalerts for your alert ids"
	newsLimit   = 5
)

type AlertStore interface {
	CreateAlert(ctx context.Context, a types.Alert) (types.Alert, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]types.Alert, error)
	DeleteAlert(ctx context.Context, id, ownerID int64) error
}

type Quoter interface {
	Quote(ctx context.Context, symbol string) (types.PriceQuote, error)
}

type NewsSource interface {
	Latest(ctx context.Context, limit int) ([]types.NewsArticle, error)
}

// Request is one inbound bot command, independent of the transport
type Request struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Command   string
	Args      string
}

// Owner is the user an alert created by this request belongs to
func (r Request) Owner() int64 {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.ChatID
}

// Router turns commands into MarkdownV2 replies
type Router struct {
	alerts  AlertStore
	prices  Quoter
	news    NewsSource
	metrics *metrics.BotMetrics
	now     func() time.Time
}

func NewRouter(alerts AlertStore, prices Quoter, news NewsSource, m *metrics.BotMetrics) *Router {
	if m == nil {
		m = metrics.Discard()
	}
	return &Router{alerts: alerts, prices: prices, news: news, metrics: m, now: time.Now}
}

// Handle always returns a reply. The error, when set, is for logging;
// the reply already tells the user what went wrong.
func (r *Router) Handle(ctx context.Context, req Request) (string, error) {
	log.Debugf("received command: /%s %s", req.Command, req.Args)

	var (
		text string
		err  error
	)

	switch strings.ToLower(req.Command) {
	case "start":
		text = r.CommandStart(req)
	case "help":
		text = r.CommandHelp()
	case "price", "p":
		text, err = r.CommandPrice(ctx, req.Args)
	case "alert":
		text, err = r.CommandAlert(ctx, req)
	case "myalerts":
		text, err = r.CommandMyAlerts(ctx, req)
	case "cancel":
		text, err = r.CommandCancel(ctx, req)
	case "news":
		text, err = r.CommandNews(ctx)
	default:
		text = r.CommandHelp()
	}

	if err != nil {
		return replyForError(err), errors.Wrapf(err, "command /%s", req.Command)
	}
	return text, nil
}

func replyForError(err error) string {
	var userErr *types.UserInputError
	switch {
	case errors.As(err, &userErr):
		return helpers.EscapeMarkdownV2(userErr.Message)
	case types.IsExternalService(err):
		return say("The service is unavailable right now. Please try again later.")
	default:
		return say("Something went wrong. Please try again later.")
	}
}

func (r *Router) CommandStart(req Request) string {
	name := req.FirstName
	if name == "" {
		name = "there"
	}
	return say("Hi %s! I'm your Crypto Tracker bot.", name) + "\n\n" + r.CommandHelp()
}

func (r *Router) CommandHelp() string {
	lines := []string{
		say("Here are the commands you can use:"),
		say("/price SYMBOL - Get the current price (e.g. /price btc)"),
		say("/alert SYMBOL PRICE [above|below] - Set a price alert (e.g. /alert eth 3000 below)"),
		say("/myalerts - View your active alerts"),
		say("/cancel ID - Cancel one of your alerts"),
		say("/news - Get the latest crypto news"),
		say("/help - Show this help message"),
	}
	return strings.Join(lines, "\n")
}
