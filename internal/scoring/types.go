// Package scoring aggregates foundation evidence, experiment outcomes and
// post-launch consistency into the 0-100 PMF score and verdict.
//
// Every function here is pure: the same Bundle always produces an identical
// Result, including the order of penalty and modifier sources.
package scoring

// #region verdict

// Verdict is the three-way PMF outcome.
type Verdict string

const (
	PMFConfirmed Verdict = "PMF_CONFIRMED"
	PMFPartial   Verdict = "PMF_PARTIAL"
	NoPMF        Verdict = "NO_PMF"
)

// #endregion verdict

// #region thresholds

// Component maxima.
const (
	FoundationMax  = 40
	ExperimentMax  = 30
	ConsistencyMax = 30
)

// Assembly thresholds and caps.
const (
	ConfirmedMin         = 70.0
	PartialMin           = 50.0
	PenaltyCap           = 40.0
	ModifierCap          = 15.0
	AccelerationBonus    = 5.0
	SignalQualityBonus   = 5.0
	SignalQualityBonusAt = 60.0
	HardKillCeiling      = 49.0
)

// Hard-kill thresholds.
const (
	MinNetMarginPct  = 15.0
	MaxCancelRatePct = 50.0
	MaxCPAPriceShare = 0.5
)

// #endregion thresholds

// #region config

// Config holds the tunable assembly constants.
type Config struct {
	ConfirmedMin         float64 `yaml:"confirmed_min"`
	PartialMin           float64 `yaml:"partial_min"`
	PenaltyCap           float64 `yaml:"penalty_cap"`
	ModifierCap          float64 `yaml:"modifier_cap"`
	AccelerationBonus    float64 `yaml:"acceleration_bonus"`
	SignalQualityBonus   float64 `yaml:"signal_quality_bonus"`
	SignalQualityBonusAt float64 `yaml:"signal_quality_bonus_at"`
	HardKillCeiling      float64 `yaml:"hard_kill_ceiling"`
	MinNetMarginPct      float64 `yaml:"min_net_margin_pct"`
	MaxCancelRatePct     float64 `yaml:"max_cancel_rate_pct"`
	MaxCPAPriceShare     float64 `yaml:"max_cpa_price_share"`
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		ConfirmedMin:         ConfirmedMin,
		PartialMin:           PartialMin,
		PenaltyCap:           PenaltyCap,
		ModifierCap:          ModifierCap,
		AccelerationBonus:    AccelerationBonus,
		SignalQualityBonus:   SignalQualityBonus,
		SignalQualityBonusAt: SignalQualityBonusAt,
		HardKillCeiling:      HardKillCeiling,
		MinNetMarginPct:      MinNetMarginPct,
		MaxCancelRatePct:     MaxCancelRatePct,
		MaxCPAPriceShare:     MaxCPAPriceShare,
	}
}

// #endregion config

// #region breakdown

// Row is one labelled line of a component breakdown.
type Row struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Max     int    `json:"max"`
	Label   string `json:"label"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ComponentScore is a sub-score with its rows.
type ComponentScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Max   int    `json:"max"`
	Rows  []Row  `json:"rows"`
}

func newComponent(name string, max int, rows []Row) ComponentScore {
	c := ComponentScore{Name: name, Max: max, Rows: rows}
	for _, r := range rows {
		c.Score += r.Score
	}
	return c
}

// Source is one named contribution to an adjustment.
type Source struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Adjustment is the capped total of penalties or modifiers.
type Adjustment struct {
	Total   float64  `json:"total"`
	Raw     float64  `json:"raw"`
	Cap     float64  `json:"cap"`
	Capped  bool     `json:"capped"`
	Sources []Source `json:"sources"`
}

// HardKill names the condition that forced NO_PMF.
type HardKill struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Hard-kill codes, in evaluation order.
const (
	KillNetMargin    = "NET_MARGIN"
	KillCancelRate   = "CANCEL_RATE"
	KillZeroOrders   = "ZERO_ORDERS"
	KillCPAOverPrice = "CPA_OVER_PRICE"
)

// Result is the engine's only output. It is built once and never mutated.
type Result struct {
	Score       int            `json:"score"`
	Verdict     Verdict        `json:"verdict"`
	RawScore    float64        `json:"raw_score"`
	HardKill    *HardKill      `json:"hard_kill"`
	Foundation  ComponentScore `json:"foundation"`
	Experiment  ComponentScore `json:"experiment"`
	Consistency ComponentScore `json:"consistency"`
	Penalties   Adjustment     `json:"penalties"`
	Modifiers   Adjustment     `json:"modifiers"`
}

// #endregion breakdown
