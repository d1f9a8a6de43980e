package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"StockDashboard/internal/calculator"
	"StockDashboard/internal/collector"
	"StockDashboard/internal/compare"
	"StockDashboard/internal/model"
	"StockDashboard/internal/recorder"
	"StockDashboard/internal/registry"
	"StockDashboard/internal/render"
)

// DefaultMaxConcurrency bounds simultaneous ticker loads in one pass.
const DefaultMaxConcurrency = 4

// ErrInvalidSelection wraps selection validation failures.
var ErrInvalidSelection = errors.New("invalid selection")

// Controller turns a Selection into a rendered page.
type Controller struct {
	Registry       *registry.Registry
	Collector      *collector.Collector
	Recorder       recorder.Recorder
	MaxConcurrency int

	now func() time.Time
}

// NewController creates a Controller. A nil recorder disables recording.
func NewController(reg *registry.Registry, col *collector.Collector, rec recorder.Recorder, maxConcurrency int) *Controller {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Controller{
		Registry:       reg,
		Collector:      col,
		Recorder:       rec,
		MaxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// tickerResult is the outcome of loading one selected company.
type tickerResult struct {
	company string
	symbol  model.Symbol
	data    *collector.TickerData
	err     error
}

// Render runs one render pass and records it. Per-ticker failures become
// placeholder sections; only an invalid selection or a cancelled ctx fail
// the pass.
func (c *Controller) Render(ctx context.Context, sel model.Selection) (*render.Page, error) {
	page, rec, err := c.build(ctx, sel)
	if err != nil {
		return nil, err
	}
	c.record(rec)
	return page, nil
}

// build assembles the page without recording it. The returned record is nil
// when the selection is empty.
func (c *Controller) build(ctx context.Context, sel model.Selection) (*render.Page, *recorder.PassRecord, error) {
	sel, err := sel.Normalize()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	started := c.now()
	page := &render.Page{
		Title:       render.PageTitle,
		PassID:      uuid.NewString(),
		State:       render.StateIdle,
		Inputs:      c.Inputs(sel),
		Period:      sel.Period,
		Window:      sel.Window,
		GeneratedAt: started,
	}
	if sel.Empty() {
		return page, nil, nil
	}

	page.State = render.StateLoading
	results, err := c.load(ctx, sel)
	if err != nil {
		return nil, nil, err
	}

	var ok []*collector.TickerData
	for _, r := range results {
		page.Tickers = append(page.Tickers, c.section(r, sel))
		if r.err == nil {
			ok = append(ok, r.data)
		}
	}
	page.Comparison = c.comparison(ok, sel)
	page.State = render.StateRendered

	log.Printf("[INFO] render pass %s: %d tickers, %d failed, %s",
		page.PassID, len(results), len(results)-len(ok), c.now().Sub(started).Round(time.Millisecond))
	return page, c.passRecord(page, sel, results, started), nil
}

// Warm loads every ticker of sel without rendering, so a caching fetcher
// is primed for the next pass.
func (c *Controller) Warm(ctx context.Context, sel model.Selection) error {
	sel, err := sel.Normalize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	results, err := c.load(ctx, sel)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.err != nil {
			log.Printf("[WARN] warm %s: %v", r.company, r.err)
		}
	}
	return nil
}

// Inputs builds the sidebar state for sel.
func (c *Controller) Inputs(sel model.Selection) render.Inputs {
	var opts []render.Option
	for _, e := range c.Registry.Entries() {
		opts = append(opts, render.Option{Name: e.Name, Symbol: string(e.Symbol)})
	}
	return render.NewInputs(opts, sel)
}

// load resolves and fetches every company of sel concurrently. Results keep
// selection order; each goroutine writes only its own slot.
func (c *Controller) load(ctx context.Context, sel model.Selection) ([]tickerResult, error) {
	results := make([]tickerResult, len(sel.Companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.MaxConcurrency)
	for i, name := range sel.Companies {
		i, name := i, name
		g.Go(func() error {
			r := tickerResult{company: name}
			r.symbol, r.err = c.Registry.Resolve(name)
			if r.err == nil {
				r.data, r.err = c.Collector.Collect(gctx, r.symbol, sel.Period)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func chartID(sym model.Symbol, kind string) string {
	return strings.ToLower(string(sym)) + "-" + kind
}

func (c *Controller) section(r tickerResult, sel model.Selection) render.TickerSection {
	sec := render.TickerSection{Company: r.company, Symbol: string(r.symbol)}
	if r.symbol != "" {
		sec.Title = fmt.Sprintf("%s Stock Data", r.symbol)
	} else {
		sec.Title = r.company
	}
	if r.err != nil {
		sec.Error = describe(r.err)
		return sec
	}

	s := r.data.Series
	dates := s.Dates()
	closes := render.SeriesFromFloats("Close", s.Closes())
	sym := r.symbol

	sec.Close = render.LineChart(chartID(sym, "close"), "Closing Price", dates, closes)
	sec.Volume = render.BarChart(chartID(sym, "volume"), "Volume", dates, render.SeriesFromFloats("Volume", s.Volumes()))

	maTitle := fmt.Sprintf("%d-Day Moving Average", sel.Window)
	if ma, err := calculator.MovingAverage(s, sel.Window); err != nil {
		log.Printf("[WARN] moving average %s: %v", sym, err)
		sec.MovingAverage = render.Empty(chartID(sym, "ma"), maTitle, "")
	} else {
		sec.MovingAverage = render.LineChart(chartID(sym, "ma"), maTitle, dates, closes, render.SeriesFromIndicator(ma))
	}

	if bands, err := calculator.BollingerBands(s, sel.Window); err != nil {
		log.Printf("[WARN] bollinger bands %s: %v", sym, err)
		sec.Bollinger = render.Empty(chartID(sym, "bb"), "Bollinger Bands", "")
	} else {
		sec.Bollinger = render.LineChart(chartID(sym, "bb"), "Bollinger Bands", dates, closes,
			render.SeriesFromIndicator(bands.Upper),
			render.SeriesFromIndicator(bands.Middle),
			render.SeriesFromIndicator(bands.Lower))
	}

	sec.Candlestick = render.CandlestickChart(chartID(sym, "candles"), "Candlestick Chart", s)

	sec.Metrics = render.MetricsBlock(r.data.Snapshot)
	if high, low, err := calculator.PeriodRange(s); err == nil {
		sec.Metrics = append(sec.Metrics, render.PeriodRangeRows(sel.Period, high, low)...)
	}
	return sec
}

func (c *Controller) comparison(ok []*collector.TickerData, sel model.Selection) *render.ComparisonSection {
	var closes, volumes, averages, returns []compare.Column
	for _, td := range ok {
		closes = append(closes, compare.Closes(td.Series))
		volumes = append(volumes, compare.Volumes(td.Series))
		if ma, err := calculator.MovingAverage(td.Series, sel.Window); err == nil {
			averages = append(averages, compare.FromIndicator(td.Symbol, ma))
		}
		returns = append(returns, compare.FromIndicator(td.Symbol, calculator.DailyReturn(td.Series)))
	}

	closeTbl := compare.Align(closes)
	volTbl := compare.Align(volumes)
	maTbl := compare.Align(averages)
	retTbl := compare.Align(returns)
	return &render.ComparisonSection{
		Title:   "Comparison Charts",
		Closing: render.LineChart("cmp-close", "Closing Prices Comparison", closeTbl.Dates, tableSeries(closeTbl)...),
		Volume:  render.BarChart("cmp-volume", "Volumes Comparison", volTbl.Dates, tableSeries(volTbl)...),
		Average: render.LineChart("cmp-ma", fmt.Sprintf("%d-Day Moving Averages Comparison", sel.Window), maTbl.Dates, tableSeries(maTbl)...),
		Returns: render.LineChart("cmp-returns", "Daily Returns Comparisons", retTbl.Dates, tableSeries(retTbl)...),
	}
}

func tableSeries(t compare.Table) []render.Series {
	out := make([]render.Series, len(t.Symbols))
	for i, sym := range t.Symbols {
		out[i] = render.Series{Name: string(sym), Values: t.Columns[i]}
	}
	return out
}

// describe turns a ticker error into a short user facing message.
func describe(err error) string {
	switch {
	case errors.Is(err, model.ErrUnknownCompany):
		return "unknown company"
	case errors.Is(err, model.ErrDataUnavailable):
		return "no data available for the selected period"
	default:
		return fmt.Sprintf("failed to load data: %v", err)
	}
}

func (c *Controller) passRecord(page *render.Page, sel model.Selection, results []tickerResult, started time.Time) *recorder.PassRecord {
	rec := &recorder.PassRecord{
		PassID:    page.PassID,
		StartedAt: started,
		Duration:  c.now().Sub(started),
		Period:    string(sel.Period),
		Window:    sel.Window,
		Companies: sel.Companies,
	}
	for _, r := range results {
		o := recorder.TickerOutcome{Company: r.company, Symbol: string(r.symbol), OK: r.err == nil}
		if r.err != nil {
			o.Error = r.err.Error()
		} else {
			o.Bars = r.data.Series.Len()
		}
		rec.Outcomes = append(rec.Outcomes, o)
	}
	return rec
}

func (c *Controller) record(rec *recorder.PassRecord) {
	if rec == nil {
		return
	}
	if err := c.Recorder.RecordPass(rec); err != nil {
		log.Printf("[ERROR] record pass %s: %v", rec.PassID, err)
	}
}
