package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `BTC\-USD \(spot\) 1\.5\!`, EscapeMarkdownV2("BTC-USD (spot) 1.5!"))
	assert.Equal(t, `a\\b`, EscapeMarkdownV2(`a\b`))
	assert.Equal(t, "plain", EscapeMarkdownV2("plain"))
}

func TestEscapeMarkdownV2URL(t *testing.T) {
	assert.Equal(t, `https://example.com/a_(b\)`, EscapeMarkdownV2URL("https://example.com/a_(b)"))
}

func TestFormatPriceUS(t *testing.T) {
	tests := []struct {
		price  float64
		escape bool
		want   string
	}{
		{50500, false, "50,500"},
		{50500.6, false, "50,501"},
		{3.14159, false, "3.14"},
		{3.14159, true, `3\.14`},
		{0.5, false, "0.500000"},
		{0.000001234, false, "0.00000123"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPriceUS(tt.price, tt.escape))
	}
}

func TestFormatTargetUS(t *testing.T) {
	tests := []struct {
		price  float64
		escape bool
		want   string
	}{
		{50000, false, "50,000"},
		{50000.5, false, "50,000.5"},
		{50000.5, true, `50,000\.5`},
		{0.5, false, "0.5"},
		{0.00001234, false, "0.00001234"},
		{3000.25, false, "3,000.25"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTargetUS(tt.price, tt.escape))
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 hours ago", FormatAge(now.Add(-3*time.Hour), now))
}
