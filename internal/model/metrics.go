package model

import (
	"fmt"
	"time"

	"github.com/guregu/null/v5"
)

// Metric names exposed by MetricsSnapshot.Metric.
const (
	MetricMarketCap     = "marketCap"
	MetricHigh52w       = "fiftyTwoWeekHigh"
	MetricLow52w        = "fiftyTwoWeekLow"
	MetricVolume        = "volume"
	MetricPreviousClose = "previousClose"
)

// MetricsSnapshot is a point-in-time set of descriptive facts for a symbol.
// Any field may be missing.
type MetricsSnapshot struct {
	Symbol           Symbol
	MarketCap        null.Float
	FiftyTwoWeekHigh null.Float
	FiftyTwoWeekLow  null.Float
	Volume           null.Float
	PreviousClose    null.Float
	FetchedAt        time.Time
}

// Metric returns the named field, or ErrMissingMetric when it is absent.
func (m *MetricsSnapshot) Metric(name string) (null.Float, error) {
	if m == nil {
		return null.Float{}, fmt.Errorf("%s: %w", name, ErrMissingMetric)
	}
	var v null.Float
	switch name {
	case MetricMarketCap:
		v = m.MarketCap
	case MetricHigh52w:
		v = m.FiftyTwoWeekHigh
	case MetricLow52w:
		v = m.FiftyTwoWeekLow
	case MetricVolume:
		v = m.Volume
	case MetricPreviousClose:
		v = m.PreviousClose
	default:
		return null.Float{}, fmt.Errorf("unknown metric %q: %w", name, ErrMissingMetric)
	}
	if !v.Valid {
		return v, fmt.Errorf("%s %s: %w", m.Symbol, name, ErrMissingMetric)
	}
	return v, nil
}

// Set assigns the named field. Unknown names are ignored.
func (m *MetricsSnapshot) Set(name string, v null.Float) {
	switch name {
	case MetricMarketCap:
		m.MarketCap = v
	case MetricHigh52w:
		m.FiftyTwoWeekHigh = v
	case MetricLow52w:
		m.FiftyTwoWeekLow = v
	case MetricVolume:
		m.Volume = v
	case MetricPreviousClose:
		m.PreviousClose = v
	}
}
