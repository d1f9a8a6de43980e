// Package compare aligns per-symbol series onto one shared date axis.
//
// Alignment uses the union of all dates. A symbol that did not trade on a
// given date gets an invalid value there, which charts draw as a gap.
package compare

import (
	"slices"
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// Column is one symbol's values keyed by its own dates.
type Column struct {
	Symbol model.Symbol
	Dates  []time.Time
	Values []null.Float
}

// Table is a set of columns sharing one ascending date axis.
type Table struct {
	Dates   []time.Time
	Symbols []model.Symbol
	Columns [][]null.Float
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Dates) }

// Column returns the aligned values of symbol, or nil if absent.
func (t Table) Column(symbol model.Symbol) []null.Float {
	for i, s := range t.Symbols {
		if s == symbol {
			return t.Columns[i]
		}
	}
	return nil
}

// Align merges cols onto the union of their dates. Column order is kept.
// Source columns are not modified.
func Align(cols []Column) Table {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, c := range cols {
		for _, d := range c.Dates {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	row := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		row[d] = i
	}

	t := Table{
		Dates:   dates,
		Symbols: make([]model.Symbol, len(cols)),
		Columns: make([][]null.Float, len(cols)),
	}
	for i, c := range cols {
		t.Symbols[i] = c.Symbol
		values := make([]null.Float, len(dates))
		for j, d := range c.Dates {
			if j < len(c.Values) {
				values[row[d]] = c.Values[j]
			}
		}
		t.Columns[i] = values
	}
	return t
}

// Closes builds a column of closing prices.
func Closes(s *model.PriceSeries) Column {
	return fromFloats(s.Symbol, s.Dates(), s.Closes())
}

// Volumes builds a column of traded volumes.
func Volumes(s *model.PriceSeries) Column {
	return fromFloats(s.Symbol, s.Dates(), s.Volumes())
}

// FromIndicator builds a column from a derived series.
func FromIndicator(symbol model.Symbol, ind model.Indicator) Column {
	return Column{
		Symbol: symbol,
		Dates:  slices.Clone(ind.Dates),
		Values: slices.Clone(ind.Values),
	}
}

func fromFloats(symbol model.Symbol, dates []time.Time, vals []float64) Column {
	values := make([]null.Float, len(vals))
	for i, v := range vals {
		values[i] = null.FloatFrom(v)
	}
	return Column{Symbol: symbol, Dates: dates, Values: values}
}
