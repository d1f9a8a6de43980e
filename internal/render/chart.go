package render

import (
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// ChartKind selects how a chart is drawn client side.
type ChartKind string

const (
	KindLine        ChartKind = "line"
	KindBar         ChartKind = "bar"
	KindCandlestick ChartKind = "candlestick"
)

// DateLayout is the x axis label format.
const DateLayout = "2006-01-02"

// NoDataMessage is shown in place of a chart without data.
const NoDataMessage = "No data available"

// Trace is one drawn series. Nil entries of Y are gaps.
type Trace struct {
	Name  string     `json:"name"`
	Y     []*float64 `json:"y,omitempty"`
	Open  []float64  `json:"open,omitempty"`
	High  []float64  `json:"high,omitempty"`
	Low   []float64  `json:"low,omitempty"`
	Close []float64  `json:"close,omitempty"`
}

// ChartSpec is a declarative chart handed to the browser as JSON.
type ChartSpec struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Kind    ChartKind `json:"kind"`
	X       []string  `json:"x"`
	Traces  []Trace   `json:"traces"`
	Empty   bool      `json:"empty"`
	Message string    `json:"message,omitempty"`
}

// Series is a named value column used as chart input.
type Series struct {
	Name   string
	Values []null.Float
}

// SeriesFromFloats wraps plain values; every point is valid.
func SeriesFromFloats(name string, vals []float64) Series {
	out := make([]null.Float, len(vals))
	for i, v := range vals {
		out[i] = null.FloatFrom(v)
	}
	return Series{Name: name, Values: out}
}

// SeriesFromIndicator uses the indicator name as the series name.
func SeriesFromIndicator(ind model.Indicator) Series {
	return Series{Name: ind.Name, Values: ind.Values}
}

// Empty returns a placeholder chart.
func Empty(id, title, message string) ChartSpec {
	if message == "" {
		message = NoDataMessage
	}
	return ChartSpec{ID: id, Title: title, Kind: KindLine, Empty: true, Message: message}
}

// LineChart plots every series against dates.
func LineChart(id, title string, dates []time.Time, series ...Series) ChartSpec {
	return xyChart(KindLine, id, title, dates, series)
}

// BarChart draws every series as grouped bars against dates.
func BarChart(id, title string, dates []time.Time, series ...Series) ChartSpec {
	return xyChart(KindBar, id, title, dates, series)
}

func xyChart(kind ChartKind, id, title string, dates []time.Time, series []Series) ChartSpec {
	if len(dates) == 0 || len(series) == 0 {
		return Empty(id, title, "")
	}
	spec := ChartSpec{ID: id, Title: title, Kind: kind, X: formatDates(dates)}
	for _, s := range series {
		y := make([]*float64, len(dates))
		for i := range y {
			if i < len(s.Values) && s.Values[i].Valid {
				v := s.Values[i].Float64
				y[i] = &v
			}
		}
		spec.Traces = append(spec.Traces, Trace{Name: s.Name, Y: y})
	}
	return spec
}

// CandlestickChart draws the OHLC bars of s.
func CandlestickChart(id, title string, s *model.PriceSeries) ChartSpec {
	if s.Len() == 0 {
		return Empty(id, title, "")
	}
	n := s.Len()
	tr := Trace{
		Name:  string(s.Symbol),
		Open:  make([]float64, n),
		High:  make([]float64, n),
		Low:   make([]float64, n),
		Close: make([]float64, n),
	}
	for i, b := range s.Bars {
		tr.Open[i], tr.High[i], tr.Low[i], tr.Close[i] = b.Open, b.High, b.Low, b.Close
	}
	return ChartSpec{
		ID:     id,
		Title:  title,
		Kind:   KindCandlestick,
		X:      formatDates(s.Dates()),
		Traces: []Trace{tr},
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}
