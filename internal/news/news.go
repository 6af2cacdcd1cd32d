package news

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const serviceName = "news"

type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client reads headlines from a CryptoCompare compatible news endpoint
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(c Config) *Client {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	return &Client{url: c.URL, apiKey: c.APIKey, httpClient: httpClient}
}

type newsResponse struct {
	Type    int    `json:"Type"`
	Message string `json:"Message"`
	Data    []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		PublishedOn int64  `json:"published_on"`
		SourceInfo  struct {
			Name string `json:"name"`
		} `json:"source_info"`
	} `json:"Data"`
}

// Latest returns at most limit articles, newest first as served by the API
func (c *Client) Latest(ctx context.Context, limit int) ([]types.NewsArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build news request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("authorization", "Apikey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.NewExternalServiceError(serviceName, errors.Wrap(err, "fetch news"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewExternalServiceError(serviceName, errors.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewExternalServiceError(serviceName, errors.Wrap(err, "parse news"))
	}

	articles := make([]types.NewsArticle, 0, len(body.Data))
	for _, item := range body.Data {
		if item.Title == "" || item.URL == "" {
			continue
		}
		source := item.SourceInfo.Name
		if source == "" {
			source = item.Source
		}
		articles = append(articles, types.NewsArticle{
			Title:       item.Title,
			URL:         item.URL,
			Source:      source,
			PublishedAt: time.Unix(item.PublishedOn, 0).UTC(),
		})
		if limit > 0 && len(articles) == limit {
			break
		}
	}

	if len(articles) == 0 && body.Message != "" {
		log.Warnf("News API returned no articles: %s", body.Message)
	}
	return articles, nil
}
