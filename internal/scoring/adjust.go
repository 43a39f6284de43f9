package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region penalties

// Penalties collects per-flow penalties (in flow order) and decision
// override penalties (in input order) as named sources. The total is the
// negated absolute sum, capped at -limit.
func Penalties(flows []evidence.FlowRecord, decisions []evidence.DecisionRecord, limit float64) Adjustment {
	ordered := append([]evidence.FlowRecord(nil), flows...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].FlowNumber < ordered[j].FlowNumber })

	var sources []Source
	for _, f := range ordered {
		if f.Penalties == 0 {
			continue
		}
		sources = append(sources, Source{
			Name:   fmt.Sprintf("flow %d penalty", f.FlowNumber),
			Amount: -math.Abs(f.Penalties),
		})
	}
	for i, d := range decisions {
		if d.OverridePenalty == 0 {
			continue
		}
		name := fmt.Sprintf("decision %d override", i+1)
		if d.ExperimentID != "" {
			name = fmt.Sprintf("override on %s (decision %d)", d.ExperimentID, i+1)
		}
		sources = append(sources, Source{Name: name, Amount: -math.Abs(d.OverridePenalty)})
	}

	raw := 0.0
	for _, s := range sources {
		raw += -s.Amount
	}
	adj := Adjustment{Raw: 0 - raw, Cap: -limit, Sources: sources}
	if raw > limit {
		adj.Total, adj.Capped = -limit, true
	} else {
		adj.Total = 0 - raw
	}
	return adj
}

// #endregion penalties

// #region modifiers

// Modifiers awards the acceleration and signal-quality bonuses, capped.
func Modifiers(accelerating bool, signalQuality float64, cfg Config) Adjustment {
	var sources []Source
	if accelerating {
		sources = append(sources, Source{Name: "accelerating signals", Amount: cfg.AccelerationBonus})
	}
	if signalQuality >= cfg.SignalQualityBonusAt {
		sources = append(sources, Source{
			Name:   fmt.Sprintf("signal quality %g >= %g", signalQuality, cfg.SignalQualityBonusAt),
			Amount: cfg.SignalQualityBonus,
		})
	}

	raw := 0.0
	for _, s := range sources {
		raw += s.Amount
	}
	adj := Adjustment{Raw: raw, Cap: cfg.ModifierCap, Sources: sources}
	if raw > cfg.ModifierCap {
		adj.Total, adj.Capped = cfg.ModifierCap, true
	} else {
		adj.Total = raw
	}
	return adj
}

// #endregion modifiers
