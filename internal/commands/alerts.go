package commands

import (
	"context"
	"fmt"
	"strings"

	"crypto-tracker-bot/internal/types"
	"crypto-tracker-bot/lib/helpers"
	"crypto-tracker-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CommandAlert creates an alert. The symbol is checked against the price
// provider; a missing direction is inferred from the current price.
func (r *Router) CommandAlert(ctx context.Context, req Request) (string, error) {
	args, err := ParseAlertArgs(req.Args)
	if err != nil {
		return "", err
	}

	quote, quoteErr := r.prices.Quote(ctx, args.Symbol)
	switch {
	case errors.Is(quoteErr, types.ErrUnknownSymbol):
		return "", types.NewUserInputError(translation.Translate("Unknown symbol %s.", args.Symbol), quoteErr)
	case quoteErr != nil && args.Direction == "":
		log.Warnf("Cannot infer alert direction for %s: %v", args.Symbol, quoteErr)
		return "", types.NewUserInputError(translation.Translate(
			"Could not fetch the current price of %s. Add above or below to set the alert anyway.", args.Symbol), quoteErr)
	case quoteErr != nil:
		log.Warnf("Creating %s alert without a current price: %v", args.Symbol, quoteErr)
	case args.Direction == "":
		args.Direction = types.DirectionBelow
		if args.Target >= quote.Price {
			args.Direction = types.DirectionAbove
		}
	}

	a, err := r.alerts.CreateAlert(ctx, types.Alert{
		OwnerID:     req.Owner(),
		ChatID:      req.ChatID,
		Symbol:      args.Symbol,
		TargetPrice: args.Target,
		Direction:   args.Direction,
	})
	if errors.Is(err, types.ErrInvalidAlert) {
		return "", types.NewUserInputError(translation.Translate(alertUsage), err)
	}
	if err != nil {
		return "", errors.Wrap(err, "save alert")
	}
	r.metrics.AlertsCreated.Inc()

	text := fmt.Sprintf("✅ %s *%s* %s *$%s*",
		say("Alert #%d set:", a.ID),
		helpers.EscapeMarkdownV2(a.Symbol),
		say(string(a.Direction)),
		helpers.FormatTargetUS(a.TargetPrice, true),
	)
	if quoteErr == nil {
		text += "\n" + say("Current price: $%s", helpers.FormatPriceUS(quote.Price, false))
	}
	return text, nil
}

func (r *Router) CommandMyAlerts(ctx context.Context, req Request) (string, error) {
	alerts, err := r.alerts.ListActiveByOwner(ctx, req.Owner())
	if err != nil {
		return "", errors.Wrap(err, "list alerts")
	}

	if len(alerts) == 0 {
		return say("You have no active alerts. Set one with /alert SYMBOL PRICE."), nil
	}

	var alertList strings.Builder
	alertList.WriteString("*" + say("Your active alerts:") + "*\n\n")
	now := r.now()
	for _, a := range alerts {
		alertList.WriteString(fmt.Sprintf("▫️ %s *%s* %s *$%s* _%s_\n",
			say("#%d", a.ID),
			helpers.EscapeMarkdownV2(a.Symbol),
			say(string(a.Direction)),
			helpers.FormatTargetUS(a.TargetPrice, true),
			say("set %s", helpers.FormatAge(a.CreatedAt, now)),
		))
	}
	alertList.WriteString("\n" + say("Cancel one with /cancel ID."))

	return alertList.String(), nil
}

func (r *Router) CommandCancel(ctx context.Context, req Request) (string, error) {
	id, err := parseAlertID(req.Args)
	if err != nil {
		return "", err
	}

	err = r.alerts.DeleteAlert(ctx, id, req.Owner())
	switch {
	case errors.Is(err, types.ErrAlertNotFound):
		return "", types.NewUserInputError(translation.Translate("Alert #%d was not found.", id), err)
	case errors.Is(err, types.ErrNotAlertOwner):
		return "", types.NewUserInputError(translation.Translate("Alert #%d does not belong to you.", id), err)
	case err != nil:
		return "", errors.Wrap(err, "delete alert")
	}

	return say("Alert #%d cancelled.", id), nil
}
