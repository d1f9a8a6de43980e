package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"StockDashboard/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns the daily bars of symbol over period. It fails with
	// model.ErrDataUnavailable when the provider has no rows.
	FetchHistory(ctx context.Context, symbol model.Symbol, period model.Period) (*model.PriceSeries, error)
	// FetchSnapshot returns the current descriptive metrics of symbol.
	// Fields the provider does not report are left invalid.
	FetchSnapshot(ctx context.Context, symbol model.Symbol) (*model.MetricsSnapshot, error)
	Name() string
}

// newHTTPClient builds a client with an optional proxy.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
