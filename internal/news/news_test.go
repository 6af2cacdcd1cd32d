package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNews = `{"Type":100,"Message":"News list successfully returned","Data":[
	{"id":"1","published_on":1760443200,"title":"Bitcoin tops 50k","url":"https://example.com/btc","source":"coindesk","source_info":{"name":"CoinDesk"}},
	{"id":"2","published_on":1760439600,"title":"","url":"https://example.com/empty","source":"x"},
	{"id":"3","published_on":1760436000,"title":"Ether upgrade ships","url":"https://example.com/eth","source":"decrypt"},
	{"id":"4","published_on":1760432400,"title":"Third story","url":"https://example.com/3","source":"theblock"}]}`

func TestLatest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		fmt.Fprint(w, sampleNews)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret", Timeout: time.Second})
	articles, err := c.Latest(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "Apikey secret", gotAuth)
	require.Len(t, articles, 2)
	assert.Equal(t, types.NewsArticle{
		Title:       "Bitcoin tops 50k",
		URL:         "https://example.com/btc",
		Source:      "CoinDesk",
		PublishedAt: time.Unix(1760443200, 0).UTC(),
	}, articles[0])
	assert.Equal(t, "decrypt", articles[1].Source)
}

func TestLatestServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Timeout: time.Second})
	_, err := c.Latest(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, types.IsExternalService(err))
}

func TestLatestBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>")
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Timeout: time.Second})
	_, err := c.Latest(context.Background(), 5)
	assert.True(t, types.IsExternalService(err))
}
