package signals

import (
	"context"
	"fmt"
)

// #region producer

// Producer derives metrics and classifications for a checkpoint.
type Producer struct {
	judge  Judge
	config RuleConfig
}

// NewProducer creates a Producer. judge may be nil (rule labels only).
func NewProducer(judge Judge, config RuleConfig) *Producer {
	return &Producer{judge: judge, config: config}
}

// #endregion producer

// #region produce

// Produce derives metrics, applies the rules, then asks the judge about the
// rest. A judge failure degrades to the rule labels; it is never fatal.
func (p *Producer) Produce(ctx context.Context, raw RawCounters) Reading {
	metrics := Derive(raw)
	rule := ClassifyByRules(raw, metrics, p.config)

	reading := Reading{
		Raw:             raw,
		Metrics:         metrics,
		Rule:            rule,
		Classifications: Merge(rule, nil),
	}
	if p.judge == nil {
		return reading
	}

	qualitative, err := p.judge.Classify(ctx, raw, metrics, rule)
	if err != nil {
		reading.JudgeError = fmt.Sprintf("judge: %v", err)
		return reading
	}
	reading.Classifications = Merge(rule, qualitative)
	return reading
}

// #endregion produce
