package scoring

import (
	"fmt"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// CheckHardKill evaluates the four hard-kill conditions in order and returns
// the first that fires, or nil.
func CheckHardKill(b evidence.Bundle, cfg Config) *HardKill {
	if c := b.Consistency; c != nil {
		if c.NetMarginPct != nil && *c.NetMarginPct < cfg.MinNetMarginPct {
			return &HardKill{
				Code:   KillNetMargin,
				Reason: fmt.Sprintf("net margin %g%% below %g%%", *c.NetMarginPct, cfg.MinNetMarginPct),
			}
		}
		if c.CancelRatePct != nil && *c.CancelRatePct > cfg.MaxCancelRatePct {
			return &HardKill{
				Code:   KillCancelRate,
				Reason: fmt.Sprintf("cancel rate %g%% above %g%%", *c.CancelRatePct, cfg.MaxCancelRatePct),
			}
		}
	}

	if len(b.Experiments) == 0 {
		return nil
	}

	totalOrders := 0.0
	worst := evidence.Undefined()
	for _, exp := range b.Experiments {
		results := evidence.EffectiveResults(exp, b.Signals)
		totalOrders += results.OrderCount()
		if v, ok := results.ResolvedCPA().Value(); ok {
			if w, wok := worst.Value(); !wok || v > w {
				worst = evidence.Defined(v)
			}
		}
	}
	if totalOrders == 0 {
		return &HardKill{
			Code:   KillZeroOrders,
			Reason: fmt.Sprintf("zero orders across %d experiment(s)", len(b.Experiments)),
		}
	}

	price := committedPrice(b)
	if w, ok := worst.Value(); ok && price > 0 && w > price*cfg.MaxCPAPriceShare {
		return &HardKill{
			Code: KillCPAOverPrice,
			Reason: fmt.Sprintf("worst CPA $%s exceeds %g%% of committed price $%g",
				worst, cfg.MaxCPAPriceShare*100, price),
		}
	}
	return nil
}

// committedPrice prefers the explicit bundle value and falls back to the
// locked price stage.
func committedPrice(b evidence.Bundle) float64 {
	if b.CommittedPriceUSD > 0 {
		return b.CommittedPriceUSD
	}
	return evidence.CommittedPrice(b.Flows)
}
