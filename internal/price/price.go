package price

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const serviceName = "coinpaprika"

// Config of the CoinPaprika client
type Config struct {
	APIProKey string
	Timeout   time.Duration
	// HTTPClient overrides the default client built from Timeout
	HTTPClient *http.Client
}

// Client resolves ticker symbols to CoinPaprika coins and reads their USD price
type Client struct {
	paprika *coinpaprika.Client
	now     func() time.Time

	// symbol -> coin id and display name, filled on first lookup
	idMapping map[string]coinRef
	idMutex   sync.RWMutex
}

type coinRef struct {
	ID   string
	Name string
}

func NewClient(c Config) *Client {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}

	var paprika *coinpaprika.Client
	if c.APIProKey != "" {
		paprika = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(c.APIProKey))
	} else {
		paprika = coinpaprika.NewClient(httpClient)
	}

	return &Client{
		paprika:   paprika,
		now:       time.Now,
		idMapping: make(map[string]coinRef),
	}
}

// Quote returns the current USD price of symbol.
// The SDK is not context aware, so ctx only bounds the wait for the result.
func (c *Client) Quote(ctx context.Context, symbol string) (types.PriceQuote, error) {
	symbol = types.NormalizeSymbol(symbol)
	if symbol == "" {
		return types.PriceQuote{}, errors.Wrap(types.ErrUnknownSymbol, "empty symbol")
	}

	if err := ctx.Err(); err != nil {
		return types.PriceQuote{}, types.NewExternalServiceError(serviceName, errors.Wrapf(err, "quote %s", symbol))
	}

	type result struct {
		quote types.PriceQuote
		err   error
	}
	done := make(chan result, 1)
	go func() {
		q, err := c.quote(symbol)
		done <- result{q, err}
	}()

	select {
	case r := <-done:
		return r.quote, r.err
	case <-ctx.Done():
		return types.PriceQuote{}, types.NewExternalServiceError(serviceName, errors.Wrapf(ctx.Err(), "quote %s", symbol))
	}
}

func (c *Client) quote(symbol string) (types.PriceQuote, error) {
	ref, err := c.resolve(symbol)
	if err != nil {
		return types.PriceQuote{}, err
	}

	ticker, err := c.paprika.Tickers.GetByID(ref.ID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return types.PriceQuote{}, types.NewExternalServiceError(serviceName, errors.Wrapf(err, "ticker %s", ref.ID))
	}

	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return types.PriceQuote{}, types.NewExternalServiceError(serviceName, errors.Errorf("ticker %s has no USD price", ref.ID))
	}

	name := ref.Name
	if ticker.Name != nil {
		name = *ticker.Name
	}

	log.Debugf("Fetched %s (%s) price %.8g USD", symbol, ref.ID, *usd.Price)
	return types.PriceQuote{
		Symbol:    symbol,
		Name:      name,
		Price:     *usd.Price,
		FetchedAt: c.now().UTC(),
	}, nil
}

// resolve maps a symbol to a coin id, preferring an exact symbol match
func (c *Client) resolve(symbol string) (coinRef, error) {
	c.idMutex.RLock()
	ref, exists := c.idMapping[symbol]
	c.idMutex.RUnlock()
	if exists {
		return ref, nil
	}

	result, err := c.paprika.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return coinRef{}, types.NewExternalServiceError(serviceName, errors.Wrapf(err, "search %s", symbol))
	}

	coin := bestMatch(symbol, result.Currencies)
	if coin == nil {
		return coinRef{}, errors.Wrapf(types.ErrUnknownSymbol, "%s", symbol)
	}

	ref = coinRef{ID: *coin.ID}
	if coin.Name != nil {
		ref.Name = *coin.Name
	}

	c.idMutex.Lock()
	c.idMapping[symbol] = ref
	c.idMutex.Unlock()

	log.Debugf("Best match for symbol '%s' is: %s", symbol, ref.ID)
	return ref, nil
}

func bestMatch(symbol string, coins []*coinpaprika.Coin) *coinpaprika.Coin {
	var first *coinpaprika.Coin
	for _, coin := range coins {
		if coin == nil || coin.ID == nil {
			continue
		}
		if coin.Symbol != nil && strings.EqualFold(*coin.Symbol, symbol) {
			return coin
		}
		if first == nil {
			first = coin
		}
	}
	return first
}
