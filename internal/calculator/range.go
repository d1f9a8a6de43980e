package calculator

import (
	"errors"
	"math"

	"StockDashboard/internal/model"
)

// PeriodRange scans every bar of the series and returns the highest high and
// the lowest low.
func PeriodRange(series *model.PriceSeries) (high, low float64, err error) {
	if series.Len() == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range series.Bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}
