package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one product bundle with the outcome it must reproduce.
type FixtureCase struct {
	Name     string          `json:"name"`
	Bundle   evidence.Bundle `json:"bundle"`
	Expected FixtureExpected `json:"expected"`
}

// FixtureExpected pins a case's outcome. Nil component scores and an empty
// top uncertainty are not checked.
type FixtureExpected struct {
	Score          int    `json:"score"`
	Verdict        string `json:"verdict"`
	HardKill       string `json:"hard_kill"`
	Foundation     *int   `json:"foundation,omitempty"`
	Experiment     *int   `json:"experiment,omitempty"`
	Consistency    *int   `json:"consistency,omitempty"`
	TopUncertainty string `json:"top_uncertainty,omitempty"`
}

// FixtureConfig bundles the thresholds for a replay run. Zero values fall
// back to the production defaults.
type FixtureConfig struct {
	Enrich        bool                 `json:"enrich"`
	GateConfig    FixtureGateConfig    `json:"gate_config"`
	ScoringConfig FixtureScoringConfig `json:"scoring_config"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MaxCPA               float64 `json:"max_cpa"`
	MinCTRPct            float64 `json:"min_ctr_pct"`
	MinMessageToOrderPct float64 `json:"min_message_to_order_pct"`
	MinOrders            float64 `json:"min_orders"`
}

// FixtureScoringConfig mirrors the assembly thresholds of scoring.Config.
type FixtureScoringConfig struct {
	ConfirmedMin    float64 `json:"confirmed_min"`
	PartialMin      float64 `json:"partial_min"`
	PenaltyCap      float64 `json:"penalty_cap"`
	ModifierCap     float64 `json:"modifier_cap"`
	HardKillCeiling float64 `json:"hard_kill_ceiling"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, c := range f.Cases {
		if err := evidence.ValidateBundle(c.Bundle); err != nil {
			return nil, fmt.Errorf("fixture %s case %d (%s): %w", path, i, c.Name, err)
		}
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{Name: fc.Name, Bundle: fc.Bundle}
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	cfg.Enrich = fc.Enrich

	g := fc.GateConfig
	cfg.GateConfig = gate.GateConfig{
		MaxCPA:               orDefault(g.MaxCPA, cfg.GateConfig.MaxCPA),
		MinCTRPct:            orDefault(g.MinCTRPct, cfg.GateConfig.MinCTRPct),
		MinMessageToOrderPct: orDefault(g.MinMessageToOrderPct, cfg.GateConfig.MinMessageToOrderPct),
		MinOrders:            orDefault(g.MinOrders, cfg.GateConfig.MinOrders),
	}

	s := fc.ScoringConfig
	sc := cfg.ScoringConfig
	sc.ConfirmedMin = orDefault(s.ConfirmedMin, sc.ConfirmedMin)
	sc.PartialMin = orDefault(s.PartialMin, sc.PartialMin)
	sc.PenaltyCap = orDefault(s.PenaltyCap, sc.PenaltyCap)
	sc.ModifierCap = orDefault(s.ModifierCap, sc.ModifierCap)
	sc.HardKillCeiling = orDefault(s.HardKillCeiling, sc.HardKillCeiling)
	cfg.ScoringConfig = sc

	return cfg
}

// Check compares a replayed result against the expectation and returns one
// line per mismatch.
func (e FixtureExpected) Check(r ReplayResult) []string {
	var out []string
	res := r.Result
	if res.Score != e.Score {
		out = append(out, fmt.Sprintf("score: expected %d, got %d", e.Score, res.Score))
	}
	if string(res.Verdict) != e.Verdict {
		out = append(out, fmt.Sprintf("verdict: expected %s, got %s", e.Verdict, res.Verdict))
	}
	var kill string
	if res.HardKill != nil {
		kill = res.HardKill.Code
	}
	if kill != e.HardKill {
		out = append(out, fmt.Sprintf("hard_kill: expected %q, got %q", e.HardKill, kill))
	}
	for _, c := range []struct {
		name string
		want *int
		got  int
	}{
		{"foundation", e.Foundation, res.Foundation.Score},
		{"experiment", e.Experiment, res.Experiment.Score},
		{"consistency", e.Consistency, res.Consistency.Score},
	} {
		if c.want != nil && *c.want != c.got {
			out = append(out, fmt.Sprintf("%s: expected %d, got %d", c.name, *c.want, c.got))
		}
	}
	if e.TopUncertainty != "" && string(r.TopUncertainty.Type) != e.TopUncertainty {
		out = append(out, fmt.Sprintf("top_uncertainty: expected %s, got %s", e.TopUncertainty, r.TopUncertainty.Type))
	}
	return out
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// #endregion fixture-loader
