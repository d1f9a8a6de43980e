package calculator

import (
	"fmt"
	"math"

	"github.com/guregu/null/v5"
	"gonum.org/v1/gonum/stat"

	"StockDashboard/internal/model"
)

// BandWidth is the number of standard deviations between the middle band and
// the outer bands.
const BandWidth = 2.0

// BollingerBands computes middle, upper and lower bands over window closes.
// The middle band is exactly MovingAverage(series, window); the envelope uses
// the trailing sample standard deviation.
func BollingerBands(series *model.PriceSeries, window int) (model.Bands, error) {
	middle, err := MovingAverage(series, window)
	if err != nil {
		return model.Bands{}, fmt.Errorf("bollinger bands: %w", err)
	}
	middle.Name = "Middle Band"

	closes := series.Closes()
	upper := make([]null.Float, len(closes))
	lower := make([]null.Float, len(closes))
	for i := window - 1; i < len(closes); i++ {
		sd := stat.StdDev(closes[i-window+1:i+1], nil)
		if math.IsNaN(sd) || !middle.Values[i].Valid {
			continue
		}
		mid := middle.Values[i].Float64
		upper[i] = null.FloatFrom(mid + BandWidth*sd)
		lower[i] = null.FloatFrom(mid - BandWidth*sd)
	}

	return model.Bands{
		Middle: middle,
		Upper:  model.Indicator{Name: "Upper Band", Dates: series.Dates(), Values: upper},
		Lower:  model.Indicator{Name: "Lower Band", Dates: series.Dates(), Values: lower},
	}, nil
}
