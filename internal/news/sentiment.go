package news

import (
	"context"
	"strings"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxArticles is the number of articles scored per ticker
	MaxArticles = 10
	// CacheTTL bounds how long a summary is reused
	CacheTTL = 10 * time.Minute

	cacheSize = 256
)

// Article is a scored headline
type Article struct {
	Title string
	URL   string
	Score float64
	Label types.SentimentLabel
}

// Summary is the sentiment of recent news about a ticker
type Summary struct {
	Ticker   string
	Articles []Article
	Score    float64
	Label    types.SentimentLabel
	Fetched  time.Time
}

// Summarizer fetches and scores news, memoizing results per ticker
type Summarizer struct {
	searcher Searcher
	scorer   Scorer
	enabled  bool
	cache    *expirable.LRU[string, Summary]
	now      func() time.Time
}

func NewSummarizer(s Searcher, scorer Scorer, enabled bool) *Summarizer {
	if scorer == nil {
		scorer = NewVader()
	}
	return &Summarizer{
		searcher: s,
		scorer:   scorer,
		enabled:  enabled,
		cache:    expirable.NewLRU[string, Summary](cacheSize, nil, CacheTTL),
		now:      time.Now,
	}
}

// Enabled reports whether the feature is configured
func (s *Summarizer) Enabled() bool {
	return s.enabled
}

// Summarize returns the sentiment summary for ticker, from cache when fresh
func (s *Summarizer) Summarize(ctx context.Context, ticker string) (Summary, error) {
	if !s.enabled {
		return Summary{}, ErrDisabled
	}
	ticker = types.NormalizeTicker(ticker)
	if ticker == "" {
		return Summary{}, errors.New("empty ticker")
	}

	if cached, found := s.cache.Get(ticker); found {
		log.Debugf("returning cached sentiment for %s", ticker)
		return cached, nil
	}

	raw, err := s.searcher.Search(ctx, ticker, "en", MaxArticles)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "news for %s", ticker)
	}

	summary := Score(s.scorer, ticker, raw)
	summary.Fetched = s.now()
	s.cache.Add(ticker, summary)
	return summary, nil
}

// Score labels every article and averages the scores
func Score(scorer Scorer, ticker string, raw []RawArticle) Summary {
	summary := Summary{Ticker: ticker, Label: types.Neutral}
	if len(raw) > MaxArticles {
		raw = raw[:MaxArticles]
	}

	total := 0.0
	for _, a := range raw {
		score := scorer.Compound(strings.TrimSpace(a.Title + " " + a.Description))
		summary.Articles = append(summary.Articles, Article{
			Title: a.Title,
			URL:   a.URL,
			Score: score,
			Label: types.LabelFor(score),
		})
		total += score
	}

	if len(summary.Articles) > 0 {
		summary.Score = total / float64(len(summary.Articles))
		summary.Label = types.LabelFor(summary.Score)
	}
	return summary
}
