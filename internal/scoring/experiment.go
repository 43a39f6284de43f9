package scoring

import (
	"fmt"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
)

// #region experiment

// Experiment scores market evidence (max 30). Only experiments whose latest
// decision is GO contribute to the primary-metric and gates rows; signal
// quality and integrity are scored regardless.
func Experiment(b evidence.Bundle, gates gate.GateConfig) ComponentScore {
	bestTier, bestPasses := -1, -1
	var bestOrders float64
	goCount := 0

	for _, exp := range b.Experiments {
		d, ok := evidence.LatestDecision(b.Decisions, exp.ID)
		if !ok || d.HumanDecision != evidence.GO {
			continue
		}
		goCount++
		results := evidence.EffectiveResults(exp, b.Signals)
		orders := results.OrderCount()
		if tier := primaryTier(orders); tier > bestTier {
			bestTier, bestOrders = tier, orders
		}
		if r := gate.EvaluateGates(results, gates); r.PassCount > bestPasses {
			bestPasses = r.PassCount
		}
	}

	var primary, gatesRow Row
	if goCount == 0 {
		primary = Row{Name: "primary_metric", Max: 10, Label: "No GO experiment"}
		gatesRow = Row{Name: "gates", Max: 10, Label: "No GO experiment"}
	} else {
		primary = Row{
			Name:  "primary_metric",
			Score: bestTier,
			Max:   10,
			Label: fmt.Sprintf("best of %d GO experiment(s): %g orders", goCount, bestOrders),
		}
		gatesRow = Row{
			Name:  "gates",
			Score: gatesTier(bestPasses),
			Max:   10,
			Label: fmt.Sprintf("%d/%d gates passed", bestPasses, gate.GateCount),
		}
	}

	rows := []Row{
		primary,
		gatesRow,
		signalQualityRow(b.SignalQualityScore),
		integrityRow(b.Decisions),
	}
	return newComponent("experiment", ExperimentMax, rows)
}

// #endregion experiment

// #region buckets

func primaryTier(orders float64) int {
	switch {
	case orders >= 3:
		return 10
	case orders >= 1:
		return 7
	case orders > 0:
		return 3
	}
	return 0
}

func gatesTier(passes int) int {
	switch {
	case passes >= 4:
		return 10
	case passes == 3:
		return 7
	case passes == 2:
		return 4
	}
	return 0
}

func signalQualityRow(q float64) Row {
	row := Row{Name: "signal_quality", Max: 5, Label: fmt.Sprintf("signal quality %g", q)}
	switch {
	case q >= 60:
		row.Score = 5
	case q >= 40:
		row.Score = 3
	case q >= 20:
		row.Score = 1
	}
	return row
}

// integrityRow starts at 5. A kill-triggering result taken to GO drops it
// to 1, whether the kill came from the experiment's condition or from a KILL
// recommendation; otherwise the number of overridden decisions decides.
func integrityRow(decisions []evidence.DecisionRecord) Row {
	overrides := 0
	killOverridden := false
	for _, d := range decisions {
		if d.OverrideApplied {
			overrides++
		}
		if (d.KillTriggered || d.AIRecommendation == evidence.KILL) && d.HumanDecision == evidence.GO {
			killOverridden = true
		}
	}

	row := Row{Name: "integrity", Max: 5}
	switch {
	case killOverridden:
		row.Score, row.Label = 1, "kill condition overridden to GO"
	case overrides > 2:
		row.Score, row.Label = 2, fmt.Sprintf("%d overridden decisions", overrides)
	case overrides > 0:
		row.Score, row.Label = 3, fmt.Sprintf("%d overridden decision(s)", overrides)
	default:
		row.Score, row.Label = 5, "no overrides"
	}
	return row
}

// #endregion buckets
