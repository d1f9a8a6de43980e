package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockDashboard/internal/collector"
	"StockDashboard/internal/model"
	"StockDashboard/internal/recorder"
	"StockDashboard/internal/registry"
	"StockDashboard/internal/render"
)

var testEnd = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

type memRecorder struct {
	mu     sync.Mutex
	passes []*recorder.PassRecord
}

func (m *memRecorder) RecordPass(rec *recorder.PassRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes = append(m.passes, rec)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func newController(m *collector.MockFetcher, rec recorder.Recorder) *Controller {
	if m.End.IsZero() {
		m.End = testEnd
	}
	return NewController(registry.Default(), collector.NewCollector(m, 5*time.Second), rec, 4)
}

func TestRender_SingleTicker(t *testing.T) {
	m := &collector.MockFetcher{}
	page, err := newController(m, nil).Render(context.Background(),
		model.Selection{Companies: []string{"Apple"}, Period: model.Period1mo, Window: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.State != render.StateRendered {
		t.Errorf("state = %s, want rendered", page.State)
	}
	if len(page.Tickers) != 1 || page.Tickers[0].Symbol != "AAPL" {
		t.Fatalf("expected one AAPL section, got %+v", page.Tickers)
	}
	sec := page.Tickers[0]
	if sec.Failed() || sec.Title != "AAPL Stock Data" {
		t.Fatalf("unexpected section %q error=%q", sec.Title, sec.Error)
	}

	rows := len(sec.Close.X)
	if sec.MovingAverage.Title != "20-Day Moving Average" || len(sec.MovingAverage.Traces) != 2 {
		t.Fatalf("unexpected moving average chart %+v", sec.MovingAverage)
	}
	ma := sec.MovingAverage.Traces[1].Y
	if len(ma) > rows {
		t.Errorf("moving average has %d values for %d rows", len(ma), rows)
	}
	for i := 0; i < 19; i++ {
		if ma[i] != nil {
			t.Errorf("moving average index %d should be undefined", i)
		}
	}
	if ma[19] == nil {
		t.Error("moving average index 19 should be defined")
	}
	if len(sec.Bollinger.Traces) != 4 || sec.Candlestick.Kind != render.KindCandlestick {
		t.Errorf("missing bollinger or candlestick chart")
	}
	if len(sec.Metrics) != 7 || sec.Metrics[0].Label != "Market Cap" {
		t.Errorf("unexpected metrics %+v", sec.Metrics)
	}
}

func TestRender_ComparisonColumns(t *testing.T) {
	m := &collector.MockFetcher{}
	page, err := newController(m, nil).Render(context.Background(),
		model.Selection{Companies: []string{"Apple", "Google"}, Period: model.Period3mo})
	if err != nil {
		t.Fatal(err)
	}
	if page.Comparison == nil {
		t.Fatal("expected comparison section")
	}
	for _, chart := range page.Comparison.Charts() {
		if len(chart.Traces) != 2 || chart.Traces[0].Name != "AAPL" || chart.Traces[1].Name != "GOOGL" {
			t.Errorf("%s: unexpected columns %+v", chart.Title, chart.Traces)
		}
	}
	closing, volume := page.Comparison.Closing, page.Comparison.Volume
	if len(closing.X) != model.Period3mo.TradingDays() || len(closing.X) != len(volume.X) {
		t.Errorf("closing axis %d, volume axis %d", len(closing.X), len(volume.X))
	}
	if page.Comparison.Average.Title != "20-Day Moving Averages Comparison" {
		t.Errorf("default window not applied: %q", page.Comparison.Average.Title)
	}
}

func TestRender_ComparisonUnionWithGaps(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	m := &collector.MockFetcher{Bars: map[model.Symbol][]model.OHLCV{
		"AAPL":  {{Time: day(2), Close: 1}, {Time: day(3), Close: 2}},
		"GOOGL": {{Time: day(3), Close: 5}, {Time: day(4), Close: 6}},
	}}
	page, err := newController(m, nil).Render(context.Background(),
		model.Selection{Companies: []string{"Apple", "Google"}})
	if err != nil {
		t.Fatal(err)
	}
	c := page.Comparison.Closing
	if want := []string{"2024-01-02", "2024-01-03", "2024-01-04"}; len(c.X) != 3 || c.X[0] != want[0] || c.X[2] != want[2] {
		t.Fatalf("x axis = %v, want %v", c.X, want)
	}
	if c.Traces[0].Y[2] != nil || c.Traces[1].Y[0] != nil {
		t.Error("dates missing from a symbol should be gaps")
	}
	if *c.Traces[0].Y[1] != 2 || *c.Traces[1].Y[1] != 5 {
		t.Error("shared date values misaligned")
	}
}

func TestRender_PartialFailure(t *testing.T) {
	m := &collector.MockFetcher{Fail: map[model.Symbol]error{"GOOGL": model.ErrDataUnavailable}}
	rec := &memRecorder{}
	page, err := newController(m, rec).Render(context.Background(),
		model.Selection{Companies: []string{"Apple", "Google"}})
	if err != nil {
		t.Fatalf("a ticker failure must not fail the pass: %v", err)
	}
	if len(page.Tickers) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(page.Tickers))
	}
	if page.Tickers[0].Failed() || page.Tickers[0].Close.Empty {
		t.Error("AAPL section should render fully")
	}
	if !page.Tickers[1].Failed() || page.Tickers[1].Charts() != nil {
		t.Errorf("GOOGL should be a placeholder, got %+v", page.Tickers[1])
	}
	for _, chart := range page.Comparison.Charts() {
		if len(chart.Traces) != 1 || chart.Traces[0].Name != "AAPL" {
			t.Errorf("%s should only compare available tickers: %+v", chart.Title, chart.Traces)
		}
	}
	if len(rec.passes) != 1 || rec.passes[0].Failed() != 1 {
		t.Errorf("expected one recorded pass with one failure, got %+v", rec.passes)
	}
}

func TestRender_UnknownCompany(t *testing.T) {
	m := &collector.MockFetcher{}
	page, err := newController(m, nil).Render(context.Background(),
		model.Selection{Companies: []string{"Apple", "Initech"}})
	if err != nil {
		t.Fatal(err)
	}
	if sec := page.Tickers[1]; sec.Error != "unknown company" || sec.Symbol != "" {
		t.Errorf("unexpected section %+v", sec)
	}
	if m.HistoryCalls() != 1 {
		t.Errorf("unknown company should not be fetched, got %d calls", m.HistoryCalls())
	}
}

func TestRender_EmptySelection(t *testing.T) {
	m := &collector.MockFetcher{}
	rec := &memRecorder{}
	page, err := newController(m, rec).Render(context.Background(), model.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Tickers) != 0 || page.Comparison != nil {
		t.Errorf("expected no sections, got %d tickers, comparison=%v", len(page.Tickers), page.Comparison)
	}
	if page.State != render.StateIdle {
		t.Errorf("state = %s, want idle", page.State)
	}
	if m.HistoryCalls() != 0 || m.SnapshotCalls() != 0 {
		t.Errorf("expected no fetches, got %d/%d", m.HistoryCalls(), m.SnapshotCalls())
	}
	if len(rec.passes) != 0 {
		t.Error("empty selection should not be recorded")
	}
	if len(page.Inputs.Companies) != len(registry.DefaultEntries) {
		t.Errorf("inputs should list every company, got %d", len(page.Inputs.Companies))
	}
}

func TestRender_InvalidSelection(t *testing.T) {
	ctrl := newController(&collector.MockFetcher{}, nil)
	tests := []model.Selection{
		{Companies: []string{"Apple"}, Window: 3},
		{Companies: []string{"Apple"}, Window: 55},
		{Companies: []string{"Apple"}, Period: "10y"},
	}
	for _, sel := range tests {
		if _, err := ctrl.Render(context.Background(), sel); !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("%+v: expected ErrInvalidSelection, got %v", sel, err)
		}
	}
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newController(&collector.MockFetcher{}, nil).Render(ctx, model.Selection{Companies: []string{"Apple"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWarm(t *testing.T) {
	m := &collector.MockFetcher{}
	cached := collector.NewCachedFetcher(m, time.Minute)
	ctrl := NewController(registry.Default(), collector.NewCollector(cached, time.Second), nil, 2)
	sel := model.Selection{Companies: []string{"Apple", "Google", "Microsoft"}}

	if err := ctrl.Warm(context.Background(), sel); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Render(context.Background(), sel); err != nil {
		t.Fatal(err)
	}
	if m.HistoryCalls() != 3 {
		t.Errorf("render after warm should hit the cache, got %d upstream calls", m.HistoryCalls())
	}
}

func TestSession_LastWriteWins(t *testing.T) {
	tests := []struct {
		name   string
		first  []string
		second []string
	}{
		{"new selection", []string{"Apple"}, []string{"Google"}},
		{"same selection", []string{"Apple", "Google"}, []string{"Apple", "Google"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &collector.MockFetcher{End: testEnd, Delay: 100 * time.Millisecond}
			cached := collector.NewCachedFetcher(m, time.Minute)
			rec := &memRecorder{}
			s := NewSession(NewController(registry.Default(), collector.NewCollector(cached, 5*time.Second), rec, 4))

			first := make(chan error, 1)
			go func() {
				_, err := s.Run(context.Background(), model.Selection{Companies: tt.first})
				first <- err
			}()
			deadline := time.Now().Add(2 * time.Second)
			for m.HistoryCalls() == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			page, err := s.Run(context.Background(), model.Selection{Companies: tt.second})
			if err != nil {
				t.Fatalf("latest pass failed: %v", err)
			}
			if len(page.Tickers) != len(tt.second) {
				t.Fatalf("latest pass rendered %d tickers, want %d", len(page.Tickers), len(tt.second))
			}
			for _, sec := range page.Tickers {
				if sec.Failed() {
					t.Errorf("latest pass section %s failed: %s", sec.Company, sec.Error)
				}
			}
			if err := <-first; !errors.Is(err, ErrSuperseded) {
				t.Errorf("first pass: expected ErrSuperseded, got %v", err)
			}
			if len(rec.passes) != 1 || rec.passes[0].PassID != page.PassID {
				t.Errorf("expected only the latest pass recorded, got %d records", len(rec.passes))
			}
		})
	}
}

// gateRecorder blocks the first RecordPass call until release is closed.
type gateRecorder struct {
	memRecorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gateRecorder) RecordPass(rec *recorder.PassRecord) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.memRecorder.RecordPass(rec)
}

func TestSession_RecordsOnlyDeliveredPasses(t *testing.T) {
	rec := &gateRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(newController(&collector.MockFetcher{}, rec))

	type result struct {
		page *render.Page
		err  error
	}
	first := make(chan result, 1)
	go func() {
		page, err := s.Run(context.Background(), model.Selection{Companies: []string{"Apple"}})
		first <- result{page, err}
	}()
	select {
	case <-rec.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first pass never reached the recorder")
	}

	second, err := s.Run(context.Background(), model.Selection{Companies: []string{"Google"}})
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	close(rec.release)
	r := <-first

	delivered := map[string]bool{second.PassID: true}
	if r.err == nil {
		delivered[r.page.PassID] = true
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.passes) != len(delivered) {
		t.Fatalf("recorded %d passes, delivered %d", len(rec.passes), len(delivered))
	}
	for _, p := range rec.passes {
		if !delivered[p.PassID] {
			t.Errorf("pass %s recorded but never delivered", p.PassID)
		}
	}
}

func TestSessions_GetAndSweep(t *testing.T) {
	ss := NewSessions(newController(&collector.MockFetcher{}, nil))
	a := ss.Get("a")
	if ss.Get("a") != a {
		t.Error("same id should return the same session")
	}
	ss.Get("b")
	if ss.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", ss.Len())
	}
	if n := ss.Sweep(time.Hour); n != 0 {
		t.Errorf("fresh sessions swept: %d", n)
	}
	if n := ss.Sweep(-time.Second); n != 2 || ss.Len() != 0 {
		t.Errorf("expected all sessions swept, got %d (left %d)", n, ss.Len())
	}
}
