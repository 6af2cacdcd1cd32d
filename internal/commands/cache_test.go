package commands

import (
	"context"
	"testing"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedQuoter(t *testing.T) {
	cache, err := NewCache(time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	next := &fakeQuoter{quotes: map[string]types.PriceQuote{"BTC": {Symbol: "BTC", Name: "Bitcoin", Price: 50500}}}
	q := cache.Quoter(next)

	for _, symbol := range []string{"BTC", "btc", " BTC "} {
		quote, err := q.Quote(context.Background(), types.NormalizeSymbol(symbol))
		require.NoError(t, err)
		assert.Equal(t, 50500.0, quote.Price)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedQuoterDoesNotCacheErrors(t *testing.T) {
	cache, err := NewCache(time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	next := &fakeQuoter{err: errors.New("boom")}
	q := cache.Quoter(next)

	_, err = q.Quote(context.Background(), "BTC")
	require.Error(t, err)

	next.err = nil
	next.quotes = map[string]types.PriceQuote{"BTC": {Symbol: "BTC", Price: 1}}
	quote, err := q.Quote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 1.0, quote.Price)
	assert.Equal(t, 2, next.calls)
}

func TestCacheExpires(t *testing.T) {
	cache, err := NewCache(50 * time.Millisecond)
	require.NoError(t, err)
	defer cache.Close()

	next := &fakeNews{articles: []types.NewsArticle{{Title: "a", URL: "https://example.com"}}}
	n := cache.News(next)

	_, err = n.Latest(context.Background(), 5)
	require.NoError(t, err)
	got, err := n.Latest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, next.articles, got)
	assert.Equal(t, 1, next.calls)

	time.Sleep(120 * time.Millisecond)
	_, err = n.Latest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestZeroTTLDisablesCache(t *testing.T) {
	cache, err := NewCache(0)
	require.NoError(t, err)
	defer cache.Close()

	next := &fakeQuoter{}
	assert.Same(t, next, cache.Quoter(next))
}
