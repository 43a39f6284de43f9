package scoring

import (
	"math"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
)

// #region engine

// Engine assembles the PMF score from a Bundle.
type Engine struct {
	config Config
	gates  gate.GateConfig
}

// NewEngine creates an engine with the given assembly and gate thresholds.
func NewEngine(config Config, gates gate.GateConfig) *Engine {
	return &Engine{config: config, gates: gates}
}

// Compute scores b. The verdict is taken from the raw total before any
// hard-kill clamp; a hard kill then caps the total and forces NO_PMF.
// b is not modified.
func (e *Engine) Compute(b evidence.Bundle) Result {
	res := Result{
		Foundation:  Foundation(b.Flows),
		Experiment:  Experiment(b, e.gates),
		Consistency: Consistency(b.Consistency),
		Penalties:   Penalties(b.Flows, b.Decisions, e.config.PenaltyCap),
		Modifiers:   Modifiers(b.AcceleratingSignals, b.SignalQualityScore, e.config),
	}

	raw := float64(res.Foundation.Score+res.Experiment.Score+res.Consistency.Score) +
		res.Penalties.Total + res.Modifiers.Total
	res.RawScore = raw
	res.Verdict = e.verdict(raw)

	if kill := CheckHardKill(b, e.config); kill != nil {
		res.HardKill = kill
		raw = math.Min(raw, e.config.HardKillCeiling)
		res.Verdict = NoPMF
	}

	res.Score = int(math.Round(clamp(raw, 0, 100)))
	return res
}

func (e *Engine) verdict(raw float64) Verdict {
	switch {
	case raw >= e.config.ConfirmedMin:
		return PMFConfirmed
	case raw >= e.config.PartialMin:
		return PMFPartial
	}
	return NoPMF
}

// #endregion engine

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
