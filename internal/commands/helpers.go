package commands

import (
	"math"
	"strconv"
	"strings"

	"crypto-tracker-bot/internal/types"
	"crypto-tracker-bot/lib/helpers"
	"crypto-tracker-bot/lib/translation"

	"github.com/pkg/errors"
)

// say translates a plain message and escapes it for MarkdownV2
func say(msgID string, vars ...interface{}) string {
	return helpers.EscapeMarkdownV2(translation.Translate(msgID, vars...))
}

func userError(msgID string, vars ...interface{}) error {
	return types.NewUserInputError(translation.Translate(msgID, vars...), nil)
}

// AlertArgs are the parsed arguments of /alert. An empty Direction means
// it is inferred from the current price.
type AlertArgs struct {
	Symbol    string
	Target    float64
	Direction types.Direction
}

// ParseAlertArgs parses "SYMBOL PRICE [above|below]"
func ParseAlertArgs(args string) (AlertArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return AlertArgs{}, userError(alertUsage)
	}

	target, err := parsePrice(fields[1])
	if err != nil {
		return AlertArgs{}, types.NewUserInputError(translation.Translate("Invalid target price %s.", fields[1]), err)
	}

	parsed := AlertArgs{Symbol: types.NormalizeSymbol(fields[0]), Target: target}
	if len(fields) == 3 {
		parsed.Direction, err = types.ParseDirection(fields[2])
		if err != nil {
			return AlertArgs{}, types.NewUserInputError(translation.Translate("Direction must be above or below."), err)
		}
	}
	return parsed, nil
}

// parsePrice accepts 50000, 50,000, $50000.5
func parsePrice(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse price")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, errors.Errorf("price %s must be a positive number", s)
	}
	return v, nil
}

// parseAlertID accepts 12 and #12
func parseAlertID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(cancelUsage)
	}
	return id, nil
}
