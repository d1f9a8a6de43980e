package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestLineChart_GapsAndLength(t *testing.T) {
	s := Series{Name: "MA", Values: []null.Float{{}, null.FloatFrom(2), null.FloatFrom(3)}}
	spec := LineChart("c1", "Closing Price", dates(3), s)

	if spec.Empty || spec.Kind != KindLine {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if len(spec.X) != 3 || spec.X[0] != "2024-03-01" {
		t.Errorf("x axis = %v", spec.X)
	}
	y := spec.Traces[0].Y
	if y[0] != nil || y[1] == nil || *y[1] != 2 {
		t.Errorf("unexpected y values %v", y)
	}

	b, err := json.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"y":[null,2,3]`) {
		t.Errorf("gaps should serialise as null: %s", b)
	}
}

func TestLineChart_ShortSeriesPadded(t *testing.T) {
	spec := LineChart("c", "t", dates(4), SeriesFromFloats("a", []float64{1, 2}))
	if n := len(spec.Traces[0].Y); n != 4 {
		t.Fatalf("expected 4 points, got %d", n)
	}
	if spec.Traces[0].Y[3] != nil {
		t.Error("missing tail should be a gap")
	}
}

func TestCharts_EmptyInputDegrades(t *testing.T) {
	tests := []struct {
		name string
		spec ChartSpec
	}{
		{"line no dates", LineChart("a", "Closing Price", nil, SeriesFromFloats("x", nil))},
		{"line no series", LineChart("b", "Closing Price", dates(3))},
		{"bar no dates", BarChart("c", "Volume", nil)},
		{"candles nil series", CandlestickChart("d", "Candlestick Chart", nil)},
		{"candles empty series", CandlestickChart("e", "Candlestick Chart", &model.PriceSeries{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.spec.Empty || tt.spec.Message != NoDataMessage {
				t.Errorf("expected placeholder, got %+v", tt.spec)
			}
			if tt.spec.Title == "" {
				t.Error("placeholder should keep its title")
			}
		})
	}
}

func TestCandlestickChart(t *testing.T) {
	s := &model.PriceSeries{Symbol: "AAPL", Bars: []model.OHLCV{
		{Time: dates(1)[0], Open: 1, High: 3, Low: 0.5, Close: 2},
	}}
	spec := CandlestickChart("k", "Candlestick Chart", s)
	if spec.Kind != KindCandlestick || len(spec.Traces) != 1 {
		t.Fatalf("unexpected spec %+v", spec)
	}
	tr := spec.Traces[0]
	if tr.Open[0] != 1 || tr.High[0] != 3 || tr.Low[0] != 0.5 || tr.Close[0] != 2 {
		t.Errorf("unexpected ohlc %+v", tr)
	}
}

func TestMetricsBlock(t *testing.T) {
	snap := &model.MetricsSnapshot{
		Symbol:           "AAPL",
		MarketCap:        null.FloatFrom(2870000000000),
		FiftyTwoWeekHigh: null.FloatFrom(199.62),
		Volume:           null.FloatFrom(52164500),
		PreviousClose:    null.FloatFrom(185.6),
	}
	rows := MetricsBlock(snap)
	want := []MetricRow{
		{"Market Cap", "2,870,000,000,000"},
		{"52-Week High", "199.62"},
		{"52-Week Low", NotAvailable},
		{"Volume", "52,164,500"},
		{"Previous Close", "185.6"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestMetricsBlock_NilSnapshot(t *testing.T) {
	for _, r := range MetricsBlock(nil) {
		if r.Value != NotAvailable {
			t.Errorf("%s = %q, want N/A", r.Label, r.Value)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{185.64, "185.64"},
		{185.645123, "185.65"},
		{100, "100"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewInputs(t *testing.T) {
	sel := model.Selection{Companies: []string{"Google"}, Period: model.Period6mo, Window: 25}
	in := NewInputs([]Option{{Name: "Apple", Symbol: "AAPL"}, {Name: "Google", Symbol: "GOOGL"}}, sel)
	if in.Companies[0].Selected || !in.Companies[1].Selected {
		t.Errorf("unexpected selection %+v", in.Companies)
	}
	var selected []model.Period
	for _, p := range in.Periods {
		if p.Selected {
			selected = append(selected, p.Value)
		}
	}
	if len(selected) != 1 || selected[0] != model.Period6mo {
		t.Errorf("selected periods = %v", selected)
	}
	if in.Window != 25 || in.MinWindow != 5 || in.MaxWindow != 50 || in.WindowStep != 5 {
		t.Errorf("unexpected window controls %+v", in)
	}
}

func TestWritePage(t *testing.T) {
	d := dates(3)
	page := &Page{
		Title: PageTitle,
		State: StateRendered,
		Inputs: NewInputs([]Option{{Name: "Apple", Symbol: "AAPL"}, {Name: "Uber", Symbol: "UBER"}},
			model.Selection{Companies: []string{"Apple", "Uber"}, Period: model.Period1mo, Window: 20}),
		Tickers: []TickerSection{
			{
				Company:       "Apple",
				Symbol:        "AAPL",
				Title:         "AAPL Stock Data",
				Close:         LineChart("aapl-close", "Closing Price", d, SeriesFromFloats("Close", []float64{1, 2, 3})),
				Volume:        BarChart("aapl-volume", "Volume", d, SeriesFromFloats("Volume", []float64{1, 2, 3})),
				MovingAverage: Empty("aapl-ma", "20-Day Moving Average", ""),
				Bollinger:     Empty("aapl-bb", "Bollinger Bands", ""),
				Candlestick:   Empty("aapl-candles", "Candlestick Chart", ""),
				Metrics:       MetricsBlock(nil),
			},
			{Company: "Uber", Symbol: "UBER", Title: "UBER Stock Data", Error: "data unavailable"},
		},
		Comparison: &ComparisonSection{
			Title:   "Comparison Charts",
			Closing: Empty("cmp-close", "Closing Prices Comparison", ""),
			Volume:  Empty("cmp-volume", "Volumes Comparison", ""),
			Average: Empty("cmp-ma", "20-Day Moving Averages Comparison", ""),
			Returns: Empty("cmp-returns", "Daily Returns Comparisons", ""),
		},
	}

	var buf bytes.Buffer
	if err := WritePage(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		PageTitle, "AAPL Stock Data", "Closing Price", "Key Metrics", "Market Cap: N/A",
		"UBER Stock Data", "data unavailable", "Comparison Charts", "Daily Returns Comparisons",
		`id="aapl-close"`, `data-state="rendered"`, NoDataMessage,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if got := len(page.AllCharts()); got != 2 {
		t.Errorf("expected 2 drawable charts, got %d", got)
	}
}

func TestWritePage_NoSelection(t *testing.T) {
	var buf bytes.Buffer
	page := &Page{Title: PageTitle, State: StateIdle, Inputs: NewInputs(nil, model.Selection{Window: 20})}
	if err := WritePage(&buf, page); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Select one or more companies") {
		t.Error("expected selection hint")
	}
	if strings.Contains(buf.String(), "Comparison Charts") {
		t.Error("comparison section should be omitted")
	}
}
