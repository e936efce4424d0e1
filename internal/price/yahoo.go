package price

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooConfig configures the Yahoo Finance chart API client
type YahooConfig struct {
	BaseURL        string
	RequestsPerSec float64
	Timeout        time.Duration
	// OnFailure is called for every failed request other than missing data
	OnFailure func(ticker string, err error)
}

// Yahoo fetches quotes from the public Yahoo Finance chart API
type Yahoo struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	onFailure func(string, error)
}

// NewYahoo creates a Yahoo provider. Zero config values fall back to defaults.
func NewYahoo(c YahooConfig) *Yahoo {
	if c.BaseURL == "" {
		c.BaseURL = defaultYahooURL
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}

	st := gobreaker.Settings{
		Name:    "yahoo",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &Yahoo{
		baseURL:   c.BaseURL,
		client:    &http.Client{Timeout: c.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(c.RequestsPerSec), 1),
		breaker:   gobreaker.NewCircuitBreaker(st),
		onFailure: c.OnFailure,
	}
}

// chartResponse mirrors the parts of the chart API payload we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ExchangeTimezone   string   `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History implements Provider
func (y *Yahoo) History(ctx context.Context, ticker string, from, to time.Time) (types.HistoricalSeries, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))

	resp, err := y.chart(ctx, ticker, params)
	if err != nil {
		return types.HistoricalSeries{Ticker: ticker}, err
	}
	return toSeries(ticker, resp, true)
}

// Intraday implements Provider
func (y *Yahoo) Intraday(ctx context.Context, ticker, period, interval string) (types.HistoricalSeries, error) {
	params := url.Values{}
	params.Set("interval", interval)
	params.Set("range", period)

	resp, err := y.chart(ctx, ticker, params)
	if err != nil {
		return types.HistoricalSeries{Ticker: ticker}, err
	}
	return toSeries(ticker, resp, interval == "1d")
}

// CurrentPrice implements Provider. When the regular market price is missing
// it falls back to the last daily close.
func (y *Yahoo) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	resp, err := y.chart(ctx, ticker, params)
	if err != nil {
		return decimal.Zero, err
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice != nil && *meta.RegularMarketPrice > 0 {
		return decimal.NewFromFloat(*meta.RegularMarketPrice), nil
	}

	s, err := toSeries(ticker, resp, true)
	if err != nil {
		return decimal.Zero, err
	}
	last, _ := LastClose(s)
	return last, nil
}

func (y *Yahoo) chart(ctx context.Context, ticker string, params url.Values) (*chartResponse, error) {
	if ticker == "" {
		return nil, errors.Wrap(ErrNoData, "empty ticker")
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	out, err := y.breaker.Execute(func() (interface{}, error) {
		return y.fetch(ctx, ticker, params)
	})
	if err != nil {
		if y.onFailure != nil && !errors.Is(err, ErrNoData) {
			y.onFailure(ticker, err)
		}
		return nil, errors.Wrapf(err, "yahoo chart %s", ticker)
	}
	return out.(*chartResponse), nil
}

func (y *Yahoo) fetch(ctx context.Context, ticker string, params url.Values) (*chartResponse, error) {
	reqURL := y.baseURL + url.PathEscape(ticker) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode chart response")
	}
	if payload.Chart.Error != nil {
		return nil, errors.Wrapf(ErrNoData, "%s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	log.Debugf("yahoo chart %s %s: %d points", ticker, params.Encode(), len(payload.Chart.Result[0].Timestamp))
	return &payload, nil
}

// toSeries converts the chart payload to bars, skipping points with no close.
// Daily bars are keyed by calendar date.
func toSeries(ticker string, resp *chartResponse, daily bool) (types.HistoricalSeries, error) {
	s := types.HistoricalSeries{Ticker: ticker}
	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return s, ErrNoData
	}
	q := result.Indicators.Quote[0]

	loc := time.UTC
	if result.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	for i, ts := range result.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		t := time.Unix(ts, 0).In(loc)
		if daily {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		bar := types.Bar{
			Date:  t,
			Open:  orClose(at(q.Open, i), *c),
			High:  orClose(at(q.High, i), *c),
			Low:   orClose(at(q.Low, i), *c),
			Close: decimal.NewFromFloat(*c),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		s.Bars = append(s.Bars, bar)
	}

	if s.Empty() {
		return s, ErrNoData
	}
	return s, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func orClose(v *float64, c float64) decimal.Decimal {
	if v == nil {
		return decimal.NewFromFloat(c)
	}
	return decimal.NewFromFloat(*v)
}
