package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bars API.
//
//	GET {base}/api/v1/bars/daily?symbol=AAPL&range=1mo -> []restBar
//	GET {base}/api/v1/quote?symbol=AAPL                -> restQuote
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of a daily bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// restQuote is the expected JSON shape of a quote; every field is optional.
type restQuote struct {
	MarketCap        null.Float `json:"market_cap"`
	FiftyTwoWeekHigh null.Float `json:"high_52w"`
	FiftyTwoWeekLow  null.Float `json:"low_52w"`
	Volume           null.Float `json:"volume"`
	PreviousClose    null.Float `json:"previous_close"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, period model.Period) (*model.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&range=%s",
		f.BaseURL, url.QueryEscape(string(symbol)), url.QueryEscape(string(period)))

	var raw []restBar
	if err := f.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch bars %s: no rows: %w", symbol, model.ErrDataUnavailable)
	}

	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   model.TradingDay(time.Unix(rb.Timestamp, 0).UTC()),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &model.PriceSeries{
		Symbol:    symbol,
		Period:    period,
		Bars:      dedupeDays(bars),
		FetchedAt: time.Now(),
	}, nil
}

func (f *RESTFetcher) FetchSnapshot(ctx context.Context, symbol model.Symbol) (*model.MetricsSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", f.BaseURL, url.QueryEscape(string(symbol)))
	var q restQuote
	if err := f.getJSON(ctx, endpoint, &q); err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	return &model.MetricsSnapshot{
		Symbol:           symbol,
		MarketCap:        q.MarketCap,
		FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
		Volume:           q.Volume,
		PreviousClose:    q.PreviousClose,
		FetchedAt:        time.Now(),
	}, nil
}

func (f *RESTFetcher) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return fmt.Errorf("status %d: %w", resp.StatusCode, model.ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
