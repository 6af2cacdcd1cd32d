package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
)

// Cache keeps recent /price and /news answers in an in-memory buntdb with expiring keys
type Cache struct {
	db  *buntdb.DB
	ttl time.Duration
}

func NewCache(ttl time.Duration) (*Cache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache")
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(key string, v any) bool {
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		raw, err = tx.Get(key)
		return err
	})
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Debugf("dropping unreadable cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) set(key string, v any) {
	content, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal cache entry %s: %v", key, err)
		return
	}
	err = c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(content), &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
	if err != nil {
		log.Errorf("failed to store cache entry %s: %v", key, err)
	}
}

// Quoter wraps next so repeated lookups within the ttl are served from the cache.
// A zero ttl disables caching.
func (c *Cache) Quoter(next Quoter) Quoter {
	if c.ttl <= 0 {
		return next
	}
	return &cachedQuoter{next: next, cache: c}
}

func (c *Cache) News(next NewsSource) NewsSource {
	if c.ttl <= 0 {
		return next
	}
	return &cachedNews{next: next, cache: c}
}

type cachedQuoter struct {
	next  Quoter
	cache *Cache
}

func (q *cachedQuoter) Quote(ctx context.Context, symbol string) (types.PriceQuote, error) {
	key := "quote:" + types.NormalizeSymbol(symbol)

	var quote types.PriceQuote
	if q.cache.get(key, &quote) {
		return quote, nil
	}

	quote, err := q.next.Quote(ctx, symbol)
	if err != nil {
		return quote, err
	}
	q.cache.set(key, quote)
	return quote, nil
}

type cachedNews struct {
	next  NewsSource
	cache *Cache
}

func (n *cachedNews) Latest(ctx context.Context, limit int) ([]types.NewsArticle, error) {
	key := fmt.Sprintf("news:%d", limit)

	var articles []types.NewsArticle
	if n.cache.get(key, &articles) {
		return articles, nil
	}

	articles, err := n.next.Latest(ctx, limit)
	if err != nil {
		return nil, err
	}
	n.cache.set(key, articles)
	return articles, nil
}
