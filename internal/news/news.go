package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultNewsURL = "https://newsapi.org/v2/everything"

// ErrDisabled is returned when no news API key is configured
var ErrDisabled = errors.New("news sentiment disabled: NEWS_API_KEY not configured")

// RawArticle is an article as returned by the news provider
type RawArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Searcher finds recent articles matching a query
type Searcher interface {
	Search(ctx context.Context, query, language string, max int) ([]RawArticle, error)
}

// Client talks to the NewsAPI "everything" endpoint
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultNewsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Search implements Searcher. A non-200 answer yields no articles and no error.
func (c *Client) Search(ctx context.Context, query, language string, max int) ([]RawArticle, error) {
	if c.apiKey == "" {
		return nil, ErrDisabled
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", language)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create news request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "news request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("news api returned %d for %q", resp.StatusCode, query)
		return nil, nil
	}

	var payload struct {
		Status   string       `json:"status"`
		Articles []RawArticle `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode news response")
	}

	if len(payload.Articles) > max {
		payload.Articles = payload.Articles[:max]
	}
	return payload.Articles, nil
}
