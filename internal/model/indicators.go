package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// Indicator is a derived series aligned 1:1 with the dates it was computed
// from. Invalid values mark dates with insufficient history.
type Indicator struct {
	Name   string
	Dates  []time.Time
	Values []null.Float
}

// Len returns the number of points.
func (ind Indicator) Len() int { return len(ind.Values) }

// ValidCount returns the number of points carrying a value.
func (ind Indicator) ValidCount() int {
	n := 0
	for _, v := range ind.Values {
		if v.Valid {
			n++
		}
	}
	return n
}

// Bands holds the three Bollinger band lines.
type Bands struct {
	Middle Indicator
	Upper  Indicator
	Lower  Indicator
}
