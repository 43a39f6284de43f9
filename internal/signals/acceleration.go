package signals

import (
	"gonum.org/v1/gonum/stat"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region acceleration

// minCheckpoints is the fewest checkpoints that give two rate samples.
const minCheckpoints = 3

// Accelerating reports whether metric is growing faster over time for an
// experiment: the per-hour rate between consecutive checkpoints is fitted
// against time and the slope must be positive.
func Accelerating(records []evidence.SignalRecord, experimentID, metric string) bool {
	hours, values := evidence.Series(records, experimentID, metric)
	if len(hours) < minCheckpoints {
		return false
	}

	var at, rates []float64
	for i := 1; i < len(hours); i++ {
		dt := hours[i] - hours[i-1]
		if dt <= 0 {
			continue
		}
		at = append(at, hours[i])
		rates = append(rates, (values[i]-values[i-1])/dt)
	}
	if len(rates) < 2 {
		return false
	}

	_, slope := stat.LinearRegression(at, rates, nil, false)
	return slope > 0
}

// AnyAccelerating reports whether orders_placed accelerates in any experiment.
func AnyAccelerating(records []evidence.SignalRecord, experimentIDs []string) bool {
	for _, id := range experimentIDs {
		if Accelerating(records, id, "orders_placed") {
			return true
		}
	}
	return false
}

// #endregion acceleration
