package scoring

import (
	"github.com/montanaflynn/stats"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/signals"
)

// MinStabilitySamples is the fewest CPA observations CPAStabilityPct accepts.
const MinStabilitySamples = 2

// CPAStabilityPct returns 100 minus the coefficient of variation (in
// percent) of the observed CPAs, clamped to [0,100]. It reports false when
// there are too few samples or the mean is not positive.
func CPAStabilityPct(cpas []float64) (float64, bool) {
	if len(cpas) < MinStabilitySamples {
		return 0, false
	}
	mean, err := stats.Mean(cpas)
	if err != nil || mean <= 0 {
		return 0, false
	}
	sd, err := stats.StandardDeviationPopulation(cpas)
	if err != nil {
		return 0, false
	}
	pct, err := stats.Round(clamp(100-sd/mean*100, 0, 100), 2)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// Enrich returns a copy of b with inputs the signal log can supply filled
// in when the caller left them unset: acceleration from the orders_placed
// series and CPA stability from the per-checkpoint cpa values. b is not
// modified.
func Enrich(b evidence.Bundle) evidence.Bundle {
	out := b

	if !out.AcceleratingSignals {
		ids := make([]string, len(b.Experiments))
		for i, exp := range b.Experiments {
			ids[i] = exp.ID
		}
		out.AcceleratingSignals = signals.AnyAccelerating(b.Signals, ids)
	}

	if b.Consistency == nil || b.Consistency.CPAStabilityPct == nil {
		var cpas []float64
		for _, exp := range b.Experiments {
			_, values := evidence.Series(b.Signals, exp.ID, "cpa")
			cpas = append(cpas, values...)
		}
		if pct, ok := CPAStabilityPct(cpas); ok {
			var c evidence.ConsistencyInput
			if b.Consistency != nil {
				c = *b.Consistency
			}
			c.CPAStabilityPct = evidence.Float(pct)
			out.Consistency = &c
		}
	}
	return out
}
