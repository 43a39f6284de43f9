package gate

import (
	"fmt"
	"strconv"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region gate
// Gate evaluates experiment results against the four thresholds and the
// operator's criteria, then derives a rule recommendation.
type Gate struct {
	config  GateConfig
	matcher CriteriaMatcher
}

// NewGate creates a gate. A nil matcher uses the keyword heuristic.
func NewGate(config GateConfig, matcher CriteriaMatcher) *Gate {
	if matcher == nil {
		matcher = NewKeywordMatcher(config)
	}
	return &Gate{config: config, matcher: matcher}
}

// Config returns the thresholds in use.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate runs gates, criteria and recommendation for one experiment.
func (g *Gate) Evaluate(exp evidence.ExperimentRecord, results evidence.ExperimentResults, killTriggered bool) Assessment {
	report := EvaluateGates(results, g.config)
	criteria := g.matcher.Match(exp.Criteria, results)
	return Assessment{
		ExperimentID:   exp.ID,
		Report:         report,
		Criteria:       criteria,
		KillTriggered:  killTriggered,
		Recommendation: RuleRecommendation(report, criteria, killTriggered),
	}
}

// #endregion gate

// #region evaluate-gates
// EvaluateGates checks each gate independently.
func EvaluateGates(results evidence.ExperimentResults, cfg GateConfig) Report {
	var r Report

	cpa := results.ResolvedCPA()
	cpaGate := GateResult{Name: GateCPA, Display: cpa.String(), Comparator: "<=", Threshold: cfg.MaxCPA}
	if v, ok := cpa.Value(); ok {
		cpaGate.Value = &v
		cpaGate.Passed = v <= cfg.MaxCPA
	}
	r.Gates[0] = cpaGate

	ctr := results.ResolvedCTR()
	r.Gates[1] = GateResult{
		Name: GateCTR, Value: &ctr, Display: fmt.Sprintf("%s%%", formatNumber(ctr)),
		Comparator: ">=", Threshold: cfg.MinCTRPct, Passed: ctr >= cfg.MinCTRPct,
	}

	m2o := results.ResolvedMessageToOrderRate() * 100
	r.Gates[2] = GateResult{
		Name: GateMessageToOrder, Value: &m2o, Display: fmt.Sprintf("%s%%", formatNumber(m2o)),
		Comparator: ">=", Threshold: cfg.MinMessageToOrderPct, Passed: m2o >= cfg.MinMessageToOrderPct,
	}

	orders := results.OrderCount()
	r.Gates[3] = GateResult{
		Name: GateOrders, Value: &orders, Display: formatNumber(orders),
		Comparator: ">=", Threshold: cfg.MinOrders, Passed: orders >= cfg.MinOrders,
	}

	for _, g := range r.Gates {
		if g.Passed {
			r.PassCount++
		}
	}
	return r
}

// #endregion evaluate-gates

// #region recommend
// RuleRecommendation applies the precedence table; the first match wins.
func RuleRecommendation(report Report, criteria CriteriaVerdict, killTriggered bool) Recommendation {
	passed := report.PassCount
	switch {
	case killTriggered:
		return Recommendation{Decision: evidence.KILL, Confidence: ConfidenceHigh, Reason: "kill condition triggered"}
	case criteria == CriteriaSuccess && passed >= 3:
		return Recommendation{Decision: evidence.GO, Confidence: ConfidenceHigh,
			Reason: fmt.Sprintf("success criteria met with %d/%d gates", passed, GateCount)}
	case criteria == CriteriaFailure && passed <= 1:
		return Recommendation{Decision: evidence.KILL, Confidence: ConfidenceMedium,
			Reason: fmt.Sprintf("failure criteria met with %d/%d gates", passed, GateCount)}
	case criteria == CriteriaContradictory || criteria == CriteriaAmbiguous:
		return Recommendation{Decision: evidence.FIX, Confidence: ConfidenceMedium,
			Reason: fmt.Sprintf("criteria %s", criteria)}
	case passed == 2:
		return Recommendation{Decision: evidence.FIX, Confidence: ConfidenceMedium, Reason: "2/4 gates passed"}
	default:
		return Recommendation{Decision: evidence.KILL, Confidence: ConfidenceMedium,
			Reason: fmt.Sprintf("%d/%d gates passed", passed, GateCount)}
	}
}

// #endregion recommend

// #region helpers
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// #endregion helpers
