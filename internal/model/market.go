package model

import (
	"fmt"
	"time"
)

// Symbol is a ticker symbol understood by the data provider, e.g. "AAPL".
type Symbol string

func (s Symbol) String() string { return string(s) }

// Period is the lookback window requested from the provider.
type Period string

const (
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
)

// DefaultPeriod is used when no period has been selected.
const DefaultPeriod = Period1mo

// Periods lists the supported lookback periods in display order.
var Periods = []Period{Period1mo, Period3mo, Period6mo, Period1y, Period2y, Period5y}

// ParsePeriod validates a period string. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return DefaultPeriod, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// TradingDays approximates the number of daily bars a period spans.
func (p Period) TradingDays() int {
	switch p {
	case Period1mo:
		return 21
	case Period3mo:
		return 63
	case Period6mo:
		return 126
	case Period1y:
		return 252
	case Period2y:
		return 504
	case Period5y:
		return 1260
	default:
		return 0
	}
}

// OHLCV represents a single daily candlestick bar.
// Time is the trading day as a calendar date at UTC midnight.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries holds the daily bars fetched for one symbol, ascending by date.
type PriceSeries struct {
	Symbol    Symbol
	Period    Period
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Dates returns a fresh slice of the bar dates.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, s.Len())
	for i, b := range s.Bars {
		dates[i] = b.Time
	}
	return dates
}

// Closes returns a fresh slice of closing prices.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns a fresh slice of traded volumes as floats.
func (s *PriceSeries) Volumes() []float64 {
	vols := make([]float64, s.Len())
	for i, b := range s.Bars {
		vols[i] = float64(b.Volume)
	}
	return vols
}

// TradingDay truncates t to its calendar date in t's own location and
// returns that date at UTC midnight.
func TradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
