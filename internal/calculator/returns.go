package calculator

import (
	"time"

	"github.com/guregu/null/v5"

	"StockDashboard/internal/model"
)

// DailyReturn computes the fractional close-to-close change. The first date
// has no predecessor and is dropped, so the result has len(series)-1 points.
// A zero previous close yields an invalid value.
func DailyReturn(series *model.PriceSeries) model.Indicator {
	ind := model.Indicator{Name: "Daily Return"}
	n := series.Len()
	if n < 2 {
		return ind
	}
	ind.Dates = make([]time.Time, 0, n-1)
	ind.Values = make([]null.Float, 0, n-1)
	for i := 1; i < n; i++ {
		prev := series.Bars[i-1].Close
		cur := series.Bars[i].Close
		v := null.Float{}
		if prev != 0 {
			v = null.FloatFrom((cur - prev) / prev)
		}
		ind.Dates = append(ind.Dates, series.Bars[i].Time)
		ind.Values = append(ind.Values, v)
	}
	return ind
}
