package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockDashboard/internal/model"
)

type cacheEntry[T any] struct {
	value   *T
	expires time.Time
}

// CachedFetcher decorates a Fetcher with a short-lived in-memory cache.
// Concurrent misses for the same key share one upstream call. The shared
// call is detached from the caller that started it and bounded by Timeout,
// so a cancelled caller never fails the others waiting on it. Callers
// always receive their own copy of the cached value.
type CachedFetcher struct {
	// Timeout bounds each shared upstream call.
	Timeout time.Duration

	inner Fetcher
	ttl   time.Duration
	now   func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	history   map[string]cacheEntry[model.PriceSeries]
	snapshots map[model.Symbol]cacheEntry[model.MetricsSnapshot]
}

// NewCachedFetcher wraps inner. A non-positive ttl disables caching but
// keeps request coalescing.
func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		Timeout:   DefaultFetchTimeout,
		inner:     inner,
		ttl:       ttl,
		now:       time.Now,
		history:   make(map[string]cacheEntry[model.PriceSeries]),
		snapshots: make(map[model.Symbol]cacheEntry[model.MetricsSnapshot]),
	}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() + "+cache" }

func historyKey(symbol model.Symbol, period model.Period) string {
	return string(symbol) + "|" + string(period)
}

func (c *CachedFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, period model.Period) (*model.PriceSeries, error) {
	key := historyKey(symbol, period)
	c.mu.Lock()
	if e, ok := c.history[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return cloneSeries(e.value), nil
	}
	c.mu.Unlock()

	v, err := c.shared(ctx, "h:"+key, func(fctx context.Context) (interface{}, error) {
		s, err := c.inner.FetchHistory(fctx, symbol, period)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.history[key] = cacheEntry[model.PriceSeries]{value: s, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSeries(v.(*model.PriceSeries)), nil
}

func (c *CachedFetcher) FetchSnapshot(ctx context.Context, symbol model.Symbol) (*model.MetricsSnapshot, error) {
	c.mu.Lock()
	if e, ok := c.snapshots[symbol]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		snap := *e.value
		return &snap, nil
	}
	c.mu.Unlock()

	v, err := c.shared(ctx, "s:"+string(symbol), func(fctx context.Context) (interface{}, error) {
		s, err := c.inner.FetchSnapshot(fctx, symbol)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.snapshots[symbol] = cacheEntry[model.MetricsSnapshot]{value: s, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	snap := *v.(*model.MetricsSnapshot)
	return &snap, nil
}

// shared runs fn once per key among concurrent callers. Each caller stops
// waiting when its own ctx is done; the upstream call keeps running for the
// others and still fills the cache.
func (c *CachedFetcher) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout)
		defer cancel()
		v, err := fn(fctx)
		if err != nil && errors.Is(fctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %s: %w", c.Timeout, model.ErrDataUnavailable)
		}
		return v, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Sweep evicts expired entries and returns how many were removed.
func (c *CachedFetcher) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.history {
		if !now.Before(e.expires) {
			delete(c.history, k)
			n++
		}
	}
	for k, e := range c.snapshots {
		if !now.Before(e.expires) {
			delete(c.snapshots, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached entries, expired or not.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history) + len(c.snapshots)
}

func cloneSeries(s *model.PriceSeries) *model.PriceSeries {
	out := *s
	out.Bars = append([]model.OHLCV(nil), s.Bars...)
	return &out
}
