package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// JSONPath expressions for snapshot fields, per endpoint.
var (
	quoteMetricPaths = map[string]string{
		model.MetricMarketCap:     "$.quoteResponse.result[0].marketCap",
		model.MetricHigh52w:       "$.quoteResponse.result[0].fiftyTwoWeekHigh",
		model.MetricLow52w:        "$.quoteResponse.result[0].fiftyTwoWeekLow",
		model.MetricVolume:        "$.quoteResponse.result[0].regularMarketVolume",
		model.MetricPreviousClose: "$.quoteResponse.result[0].regularMarketPreviousClose",
	}
	chartMetaMetricPaths = map[string]string{
		model.MetricHigh52w:       "$.chart.result[0].meta.fiftyTwoWeekHigh",
		model.MetricLow52w:        "$.chart.result[0].meta.fiftyTwoWeekLow",
		model.MetricVolume:        "$.chart.result[0].meta.regularMarketVolume",
		model.MetricPreviousClose: "$.chart.result[0].meta.chartPreviousClose",
	}
)

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func valueAt(values []interface{}, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return toFloat(values[i])
}

// get performs a GET and returns the body. Missing symbols and server side
// failures are reported as model.ErrDataUnavailable.
func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500:
		return nil, fmt.Errorf("yahoo: status %d: %w", resp.StatusCode, model.ErrDataUnavailable)
	default:
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
}

func (f *YahooFetcher) chartURL(symbol model.Symbol, rng string) string {
	return fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(string(symbol)), rng)
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, period model.Period) (*model.PriceSeries, error) {
	body, err := f.get(ctx, f.chartURL(symbol, string(period)))
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error %s: %s: %w", chart.Chart.Error.Code, chart.Chart.Error.Description, model.ErrDataUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no rows: %w", symbol, model.ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// rows without a close are holidays or half-filled live bars
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		o := valueAt(quote.Open, i)
		h := valueAt(quote.High, i)
		l := valueAt(quote.Low, i)
		c := valueAt(quote.Close, i)
		bars = append(bars, model.OHLCV{
			Time:   model.TradingDay(time.Unix(ts, 0).In(loc)),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(valueAt(quote.Volume, i)),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: only null rows: %w", symbol, model.ErrDataUnavailable)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &model.PriceSeries{
		Symbol:    symbol,
		Period:    period,
		Bars:      dedupeDays(bars),
		FetchedAt: time.Now(),
	}, nil
}

// FetchSnapshot reads the quote endpoint and falls back to the chart
// metadata, which lacks market capitalisation.
func (f *YahooFetcher) FetchSnapshot(ctx context.Context, symbol model.Symbol) (*model.MetricsSnapshot, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", f.BaseURL, url.QueryEscape(string(symbol)))
	snap, err := f.snapshotFrom(ctx, u, symbol, quoteMetricPaths)
	if err == nil {
		return snap, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	log.Printf("[WARN] yahoo quote %s failed, using chart metadata: %v", symbol, err)
	return f.snapshotFrom(ctx, f.chartURL(symbol, "1d"), symbol, chartMetaMetricPaths)
}

func (f *YahooFetcher) snapshotFrom(ctx context.Context, u string, symbol model.Symbol, paths map[string]string) (*model.MetricsSnapshot, error) {
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("yahoo decode snapshot: %w", err)
	}

	snap := &model.MetricsSnapshot{Symbol: symbol, FetchedAt: time.Now()}
	found := 0
	for name, path := range paths {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		if n, ok := v.(float64); ok {
			snap.Set(name, null.FloatFrom(n))
			found++
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("yahoo %s: empty snapshot: %w", symbol, model.ErrDataUnavailable)
	}
	return snap, nil
}

// dedupeDays keeps the last bar of each trading day. Yahoo appends a live
// bar for the current session that may share the date of the final row.
func dedupeDays(bars []model.OHLCV) []model.OHLCV {
	out := bars[:0:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
