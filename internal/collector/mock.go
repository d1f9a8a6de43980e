package collector

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// MockFetcher returns deterministic data for development and testing.
// Bars depend only on the symbol, the period and End.
type MockFetcher struct {
	// End is the last trading day generated. Zero means today.
	End time.Time
	// Bars overrides generated history per symbol.
	Bars map[model.Symbol][]model.OHLCV
	// Snapshots overrides generated snapshots per symbol.
	Snapshots map[model.Symbol]*model.MetricsSnapshot
	// Fail makes both fetches of a symbol return the given error.
	Fail map[model.Symbol]error
	// Delay is applied before every fetch; it honours ctx cancellation.
	Delay time.Duration

	historyCalls  atomic.Int64
	snapshotCalls atomic.Int64
	mu            sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

// HistoryCalls returns how many times FetchHistory has been invoked.
func (m *MockFetcher) HistoryCalls() int { return int(m.historyCalls.Load()) }

// SnapshotCalls returns how many times FetchSnapshot has been invoked.
func (m *MockFetcher) SnapshotCalls() int { return int(m.snapshotCalls.Load()) }

func (m *MockFetcher) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, period model.Period) (*model.PriceSeries, error) {
	m.historyCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if err := m.Fail[symbol]; err != nil {
		return nil, err
	}

	m.mu.Lock()
	fixed, ok := m.Bars[symbol]
	m.mu.Unlock()

	var bars []model.OHLCV
	if ok {
		bars = append([]model.OHLCV(nil), fixed...)
	} else {
		bars = generateMockBars(symbol, period.TradingDays(), m.endDay())
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Period:    period,
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

func (m *MockFetcher) FetchSnapshot(ctx context.Context, symbol model.Symbol) (*model.MetricsSnapshot, error) {
	m.snapshotCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if err := m.Fail[symbol]; err != nil {
		return nil, err
	}

	m.mu.Lock()
	fixed, ok := m.Snapshots[symbol]
	m.mu.Unlock()
	if ok {
		snap := *fixed
		snap.Symbol = symbol
		return &snap, nil
	}

	base := mockBasePrice(symbol)
	return &model.MetricsSnapshot{
		Symbol:           symbol,
		MarketCap:        null.FloatFrom(math.Round(base * 1e10)),
		FiftyTwoWeekHigh: null.FloatFrom(base * 1.25),
		FiftyTwoWeekLow:  null.FloatFrom(base * 0.75),
		Volume:           null.FloatFrom(float64(mockVolume(symbol))),
		PreviousClose:    null.FloatFrom(base),
		FetchedAt:        time.Now(),
	}, nil
}

func (m *MockFetcher) endDay() time.Time {
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return model.TradingDay(end)
}

func mockSeed(symbol model.Symbol) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}

func mockBasePrice(symbol model.Symbol) float64 {
	return 50 + float64(mockSeed(symbol)%450)
}

func mockVolume(symbol model.Symbol) int64 {
	return 1_000_000 + int64(mockSeed(symbol)%9_000_000)
}

// generateMockBars returns count weekday bars ending on or before end.
func generateMockBars(symbol model.Symbol, count int, end time.Time) []model.OHLCV {
	if count <= 0 {
		return nil
	}
	days := make([]time.Time, 0, count)
	for d := end; len(days) < count; d = d.AddDate(0, 0, -1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}

	base := mockBasePrice(symbol)
	phase := float64(mockSeed(symbol)%628) / 100
	vol := mockVolume(symbol)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := base * (1 + 0.05*math.Sin(float64(i)/7+phase) + float64(i-count/2)*0.0005)
		bars[i] = model.OHLCV{
			Time:   days[count-1-i],
			Open:   p * 0.998,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: vol + int64(i%5)*100_000,
		}
	}
	return bars
}
