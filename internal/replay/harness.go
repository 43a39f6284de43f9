// Package replay re-scores recorded product bundles so threshold or rule
// changes show up as drift against pinned outcomes.
package replay

import (
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/uncertainty"
)

// #region types
// Case is a single recorded bundle to replay.
type Case struct {
	Name   string
	Bundle evidence.Bundle
}

// ReplayConfig bundles gate and scoring configs for a replay run. Enrich
// derives acceleration and CPA stability from the signal log first.
type ReplayConfig struct {
	GateConfig    gate.GateConfig
	ScoringConfig scoring.Config
	Enrich        bool
}

// DefaultReplayConfig returns the production thresholds without enrichment.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		GateConfig:    gate.DefaultGateConfig(),
		ScoringConfig: scoring.DefaultConfig(),
	}
}

// ReplayResult captures the outcome of scoring one case.
type ReplayResult struct {
	Name           string
	Result         scoring.Result
	TopUncertainty uncertainty.Uncertainty
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases int
	Confirmed  int
	Partial    int
	NoPMF      int
	HardKills  map[string]int
}

// #endregion types

// #region replay
// Replay scores every case in order. Cases are independent and nothing is
// persisted.
func Replay(cases []Case, config ReplayConfig) []ReplayResult {
	engine := scoring.NewEngine(config.ScoringConfig, config.GateConfig)
	results := make([]ReplayResult, 0, len(cases))

	for _, c := range cases {
		b := c.Bundle
		if config.Enrich {
			b = scoring.Enrich(b)
		}
		results = append(results, ReplayResult{
			Name:           c.Name,
			Result:         engine.Compute(b),
			TopUncertainty: uncertainty.Top(b.Flows),
		})
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalCases: len(results),
		HardKills:  make(map[string]int),
	}
	for _, r := range results {
		switch r.Result.Verdict {
		case scoring.PMFConfirmed:
			s.Confirmed++
		case scoring.PMFPartial:
			s.Partial++
		case scoring.NoPMF:
			s.NoPMF++
		}
		if r.Result.HardKill != nil {
			s.HardKills[r.Result.HardKill.Code]++
		}
	}
	return s
}

// #endregion replay
