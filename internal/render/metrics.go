package render

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"

	"StockDashboard/internal/model"
)

// NotAvailable is displayed for a metric the provider did not report.
const NotAvailable = "N/A"

// MetricRow is one labelled line of the key metrics block.
type MetricRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type metricFormat int

const (
	formatInteger metricFormat = iota
	formatPrice
)

var metricRows = []struct {
	label  string
	name   string
	format metricFormat
}{
	{"Market Cap", model.MetricMarketCap, formatInteger},
	{"52-Week High", model.MetricHigh52w, formatPrice},
	{"52-Week Low", model.MetricLow52w, formatPrice},
	{"Volume", model.MetricVolume, formatInteger},
	{"Previous Close", model.MetricPreviousClose, formatPrice},
}

// MetricsBlock formats a snapshot into display rows in fixed order. A nil
// snapshot yields every row as N/A.
func MetricsBlock(snap *model.MetricsSnapshot) []MetricRow {
	rows := make([]MetricRow, 0, len(metricRows))
	for _, r := range metricRows {
		v, err := snap.Metric(r.name)
		value := NotAvailable
		if err == nil {
			value = formatMetric(v, r.format)
		}
		rows = append(rows, MetricRow{Label: r.label, Value: value})
	}
	return rows
}

// PeriodRangeRows formats the high and low over the fetched period.
func PeriodRangeRows(period model.Period, high, low float64) []MetricRow {
	return []MetricRow{
		{Label: "Period High (" + string(period) + ")", Value: FormatPrice(high)},
		{Label: "Period Low (" + string(period) + ")", Value: FormatPrice(low)},
	}
}

func formatMetric(v null.Float, f metricFormat) string {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return NotAvailable
	}
	if f == formatInteger {
		return FormatInteger(v.Float64)
	}
	return FormatPrice(v.Float64)
}

// FormatInteger rounds v and inserts thousands separators.
func FormatInteger(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// FormatPrice renders v with at most two decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
