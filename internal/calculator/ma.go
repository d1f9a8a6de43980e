package calculator

import (
	"errors"
	"fmt"

	"github.com/guregu/null/v5"
	"gonum.org/v1/gonum/stat"

	"StockDashboard/internal/model"
)

// CalculateSMA computes the simple moving average of the trailing period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return stat.Mean(prices[len(prices)-period:], nil), nil
}

// MovingAverage returns the trailing mean of window closes at every date of
// the series. The first window-1 values are invalid.
func MovingAverage(series *model.PriceSeries, window int) (model.Indicator, error) {
	if window <= 0 {
		return model.Indicator{}, fmt.Errorf("moving average: window must be positive, got %d", window)
	}
	closes := series.Closes()
	values := make([]null.Float, len(closes))
	for i := window - 1; i < len(closes); i++ {
		sma, err := CalculateSMA(closes[:i+1], window)
		if err != nil {
			return model.Indicator{}, err
		}
		values[i] = null.FloatFrom(sma)
	}
	return model.Indicator{
		Name:   fmt.Sprintf("%d-Day MA", window),
		Dates:  series.Dates(),
		Values: values,
	}, nil
}
