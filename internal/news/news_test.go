package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-dashboard-bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedScorer map[string]float64

func (f fixedScorer) Compound(text string) float64 { return f[text] }

type countingSearcher struct {
	calls    int
	articles []RawArticle
}

func (c *countingSearcher) Search(_ context.Context, _, _ string, _ int) ([]RawArticle, error) {
	c.calls++
	return c.articles, nil
}

func TestScoreLabelsAndAverage(t *testing.T) {
	scorer := fixedScorer{"up a": 0.6, "down b": -0.4, "flat c": 0.05}
	raw := []RawArticle{
		{Title: "up", Description: "a", URL: "u1"},
		{Title: "down", Description: "b", URL: "u2"},
		{Title: "flat", Description: "c", URL: "u3"},
	}

	s := Score(scorer, "AAPL", raw)

	require.Len(t, s.Articles, 3)
	assert.Equal(t, types.Positive, s.Articles[0].Label)
	assert.Equal(t, types.Negative, s.Articles[1].Label)
	assert.Equal(t, types.Neutral, s.Articles[2].Label)
	assert.InDelta(t, 0.25/3, s.Score, 1e-9)
	assert.Equal(t, types.Positive, s.Label)
}

func TestScoreNoArticles(t *testing.T) {
	s := Score(fixedScorer{}, "AAPL", nil)
	assert.Zero(t, s.Score)
	assert.Equal(t, types.Neutral, s.Label)
	assert.Empty(t, s.Articles)
}

func TestScoreKeepsTenArticles(t *testing.T) {
	raw := make([]RawArticle, 15)
	assert.Len(t, Score(fixedScorer{}, "AAPL", raw).Articles, MaxArticles)
}

func TestSummarizerMemoizes(t *testing.T) {
	searcher := &countingSearcher{articles: []RawArticle{{Title: "Apple posts strong profits"}}}
	s := NewSummarizer(searcher, nil, true)

	first, err := s.Summarize(context.Background(), "aapl")
	require.NoError(t, err)
	second, err := s.Summarize(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, types.Positive, first.Label)
}

func TestSummarizerDisabled(t *testing.T) {
	s := NewSummarizer(&countingSearcher{}, nil, false)
	_, err := s.Summarize(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestVaderCompound(t *testing.T) {
	v := NewVader()
	assert.Equal(t, types.Positive, types.LabelFor(v.Compound("Amazon delivers excellent results, investors thrilled")))
	assert.Equal(t, types.Negative, types.LabelFor(v.Compound("Nvidia stock is a terrible buy")))
	assert.Equal(t, types.Negative, types.LabelFor(v.Compound("Tesla faces fraud probe")))
	assert.Zero(t, v.Compound("Company schedules annual meeting"))
	assert.Less(t, v.Compound("results were not good"), 0.0)
	assert.Greater(t, v.Compound("very strong quarter"), v.Compound("strong quarter"))

	for _, text := range []string{"great great great great great great great", "terrible terrible terrible terrible terrible"} {
		c := v.Compound(text)
		assert.LessOrEqual(t, c, 1.0)
		assert.GreaterOrEqual(t, c, -1.0)
	}
}

func TestClientSearch(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"status":"ok","articles":[{"title":"A","description":null,"url":"https://a"},{"title":"B","description":"b","url":"https://b"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.baseURL = srv.URL

	articles, err := c.Search(context.Background(), "MSFT", "en", 1)
	require.NoError(t, err)
	assert.Equal(t, "key", gotKey)
	assert.Equal(t, "MSFT", gotQuery)
	require.Len(t, articles, 1)
	assert.Equal(t, "", articles[0].Description)
}

func TestClientSearchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad")
	c.baseURL = srv.URL

	articles, err := c.Search(context.Background(), "MSFT", "en", 10)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestClientSearchWithoutKey(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), "MSFT", "en", 10)
	assert.ErrorIs(t, err, ErrDisabled)
}
