package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StockDashboard/internal/model"
)

// DefaultFetchTimeout bounds a single provider call.
const DefaultFetchTimeout = 10 * time.Second

// TickerData is everything fetched for one symbol in a render pass.
type TickerData struct {
	Symbol   model.Symbol
	Series   *model.PriceSeries
	Snapshot *model.MetricsSnapshot
}

// Collector orchestrates the history and snapshot fetches of one symbol.
type Collector struct {
	Fetcher Fetcher
	Timeout time.Duration
}

// NewCollector creates a new Collector. A non-positive timeout selects
// DefaultFetchTimeout.
func NewCollector(fetcher Fetcher, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Collector{Fetcher: fetcher, Timeout: timeout}
}

// Collect fetches history then snapshot for symbol. A history failure fails
// the ticker; a snapshot failure degrades to an empty snapshot.
func (c *Collector) Collect(ctx context.Context, symbol model.Symbol, period model.Period) (*TickerData, error) {
	var series *model.PriceSeries
	err := c.withTimeout(ctx, func(fctx context.Context) error {
		var err error
		series, err = c.Fetcher.FetchHistory(fctx, symbol, period)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("fetch history %s: no rows: %w", symbol, model.ErrDataUnavailable)
	}

	var snap *model.MetricsSnapshot
	err = c.withTimeout(ctx, func(fctx context.Context) error {
		var err error
		snap, err = c.Fetcher.FetchSnapshot(fctx, symbol)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[WARN] snapshot %s unavailable: %v", symbol, err)
		snap = &model.MetricsSnapshot{Symbol: symbol, FetchedAt: time.Now()}
	}

	return &TickerData{Symbol: symbol, Series: series, Snapshot: snap}, nil
}

// withTimeout runs fn under the per-fetch deadline. Hitting that deadline
// while the parent is still live is reported as model.ErrDataUnavailable.
func (c *Collector) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	fctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	err := fn(fctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(fctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", c.Timeout, model.ErrDataUnavailable)
	}
	return err
}
