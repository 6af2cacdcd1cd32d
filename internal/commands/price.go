package commands

import (
	"context"
	"fmt"

	"crypto-tracker-bot/internal/types"
	"crypto-tracker-bot/lib/helpers"
	"crypto-tracker-bot/lib/translation"

	"github.com/pkg/errors"
)

func (r *Router) CommandPrice(ctx context.Context, argument string) (string, error) {
	symbol := types.NormalizeSymbol(argument)
	if symbol == "" {
		return "", userError("Please specify a cryptocurrency symbol. E.g. /price btc")
	}

	quote, err := r.prices.Quote(ctx, symbol)
	if errors.Is(err, types.ErrUnknownSymbol) {
		return "", types.NewUserInputError(translation.Translate("Could not fetch price for %s. Please check the symbol.", symbol), err)
	}
	if err != nil {
		return "", err
	}

	name := quote.Name
	if name == "" {
		name = quote.Symbol
	}

	return fmt.Sprintf("*%s \\(%s\\) price:*\n\n▫️`$%s` *USD*",
		helpers.EscapeMarkdownV2(name),
		helpers.EscapeMarkdownV2(quote.Symbol),
		helpers.FormatPriceUS(quote.Price, false),
	), nil
}
