package signals

import (
	"context"
	"errors"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// ErrVanityOverride is returned when a vanity metric carries any label other
// than NOISE. No actor, human or automated, may lift a vanity metric.
var ErrVanityOverride = errors.New("vanity metric must stay NOISE")

// #region judge-interface

// Judge is the qualitative classifier (a hosted language model). It sees the
// rule output so it can label what the rules left open; anything it returns
// for an already-classified metric is discarded by Merge.
type Judge interface {
	Classify(ctx context.Context, raw RawCounters, metrics Metrics, rule Classifications) (map[string]evidence.Classification, error)
}

// #endregion judge-interface

// #region rule-config

// Rule thresholds.
const (
	ClicksWithoutMessagesMin = 10.0
	StrongOrdersMin          = 3.0
	StrongCPAMax             = 15.0
	MessagesWithoutOrdersMin = 10.0
	WeakCancelRatePct        = 40.0
)

// RuleConfig holds the thresholds of the deterministic classification rules.
type RuleConfig struct {
	ClicksWithoutMessagesMin float64 `yaml:"clicks_without_messages_min"`
	StrongOrdersMin          float64 `yaml:"strong_orders_min"`
	StrongCPAMax             float64 `yaml:"strong_cpa_max"`
	MessagesWithoutOrdersMin float64 `yaml:"messages_without_orders_min"`
	WeakCancelRatePct        float64 `yaml:"weak_cancel_rate_pct"`
}

// DefaultRuleConfig returns the production thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		ClicksWithoutMessagesMin: ClicksWithoutMessagesMin,
		StrongOrdersMin:          StrongOrdersMin,
		StrongCPAMax:             StrongCPAMax,
		MessagesWithoutOrdersMin: MessagesWithoutOrdersMin,
		WeakCancelRatePct:        WeakCancelRatePct,
	}
}

// #endregion rule-config

// #region counters

// RawCounters are the running totals reported at an experiment checkpoint.
type RawCounters struct {
	Spend            float64 `json:"spend"`
	HoursElapsed     float64 `json:"hours_elapsed"`
	Impressions      float64 `json:"impressions"`
	Clicks           float64 `json:"clicks"`
	MessagesReceived float64 `json:"messages_received"`
	OrdersPlaced     float64 `json:"orders_placed"`
	OrdersDelivered  float64 `json:"orders_delivered"`
	OrdersCanceled   float64 `json:"orders_canceled"`
}

// Metrics are the ratios derived from RawCounters.
type Metrics struct {
	CTR                float64      `json:"ctr"`
	CPA                evidence.CPA `json:"cpa"`
	MessageToOrderRate float64      `json:"message_to_order_rate"`
	CancelRate         float64      `json:"cancel_rate"`
}

// #endregion counters

// #region labels

// Source records who assigned a label.
type Source string

const (
	SourceRule   Source = "rule"
	SourceJudge  Source = "judge"
	SourceVanity Source = "vanity"
)

// Label is one metric's classification with its provenance.
type Label struct {
	Classification evidence.Classification `json:"classification"`
	Source         Source                  `json:"source"`
	Reason         string                  `json:"reason,omitempty"`
}

// Classifications maps metric name to label.
type Classifications map[string]Label

// Reading is everything produced for one checkpoint.
type Reading struct {
	Raw             RawCounters     `json:"raw"`
	Metrics         Metrics         `json:"metrics"`
	Rule            Classifications `json:"rule"`
	Classifications Classifications `json:"classifications"`
	JudgeError      string          `json:"judge_error,omitempty"`
}

// #endregion labels
