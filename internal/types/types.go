package types

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Direction tells whether an alert fires on a rise or on a fall
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// ParseDirection accepts above/below and the shorthands >, <
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", ">", ">=":
		return DirectionAbove, nil
	case "below", "<", "<=":
		return DirectionBelow, nil
	}
	return "", errors.Errorf("unknown direction %q", s)
}

// Crossed reports whether price has reached target in this direction.
// Equality counts as crossed for both directions.
func (d Direction) Crossed(price, target float64) bool {
	switch d {
	case DirectionAbove:
		return price >= target
	case DirectionBelow:
		return price <= target
	}
	return false
}

func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

type Alert struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	ChatID      int64     `json:"chat_id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"target_price"`
	Direction   Direction `json:"direction"`
	CreatedAt   time.Time `json:"created_at"`
	Fired       bool      `json:"fired"`
	FiredAt     time.Time `json:"fired_at,omitempty"`
}

// Validate checks the fields every stored alert needs
func (a Alert) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return errors.Wrap(ErrInvalidAlert, "symbol is empty")
	}
	if !(a.TargetPrice > 0) {
		return errors.Wrapf(ErrInvalidAlert, "target price %v is not positive", a.TargetPrice)
	}
	if !a.Direction.Valid() {
		return errors.Wrapf(ErrInvalidAlert, "direction %q", a.Direction)
	}
	return nil
}

// Recipient is the chat a notification for this alert goes to
func (a Alert) Recipient() int64 {
	if a.ChatID != 0 {
		return a.ChatID
	}
	return a.OwnerID
}

// NormalizeSymbol trims and upper-cases a ticker symbol
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Notification is what the evaluator hands to the notifier when an alert fires
type Notification struct {
	AlertID       int64
	OwnerID       int64
	ChatID        int64
	Symbol        string
	Direction     Direction
	TargetPrice   float64
	ObservedPrice float64
	Text          string
}
