// Package uncertainty ranks the open risks left by the foundation stages so
// the next experiment tests the biggest one first.
package uncertainty

import (
	"sort"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region types

// Type names one kind of unresolved risk.
type Type string

const (
	PainUnvalidated        Type = "PAIN_UNVALIDATED"
	CustomerUnvalidated    Type = "CUSTOMER_UNVALIDATED"
	DifferentiationUnclear Type = "DIFFERENTIATION_UNCLEAR"
	NoDifferentiation      Type = "NO_DIFFERENTIATION"
	PriceOptimistic        Type = "PRICE_OPTIMISTIC"
	PriceAggressive        Type = "PRICE_AGGRESSIVE"
	ChannelMismatch        Type = "CHANNEL_MISMATCH"
	DemandValidation       Type = "DEMAND_VALIDATION"
)

// Uncertainty is one weighted risk with the question an experiment should answer.
type Uncertainty struct {
	Type     Type   `json:"type"`
	Weight   int    `json:"weight"`
	Question string `json:"question"`
}

// #endregion types

// #region catalog

type entry struct {
	weight   int
	category int
	question string
}

// Tie-break categories, lowest first.
const (
	categoryPrice = iota
	categoryChannel
	categoryDifferentiation
	categoryCustomer
	categoryPain
	categoryOther
)

var catalog = map[Type]entry{
	PainUnvalidated:        {30, categoryPain, "Do real customers feel this pain strongly enough to pay for relief?"},
	CustomerUnvalidated:    {25, categoryCustomer, "Is this the customer who actually has the pain and the budget?"},
	DifferentiationUnclear: {20, categoryDifferentiation, "Will customers choose this over what they already use?"},
	NoDifferentiation:      {25, categoryDifferentiation, "Is there any reason to switch when nothing sets this apart?"},
	PriceOptimistic:        {20, categoryPrice, "Will customers pay the committed price when market evidence says otherwise?"},
	PriceAggressive:        {15, categoryPrice, "Does the aggressive price tier still convert?"},
	ChannelMismatch:        {15, categoryChannel, "Can the chosen channel reach this customer at a viable cost?"},
	DemandValidation:       {20, categoryOther, "Is there real demand: will strangers order at this price through this channel?"},
}

func newUncertainty(t Type) Uncertainty {
	e := catalog[t]
	return Uncertainty{Type: t, Weight: e.weight, Question: e.question}
}

// Weight returns the fixed weight of t.
func Weight(t Type) int {
	return catalog[t].weight
}

// #endregion catalog

// #region rank

// Rank inspects the locked foundation stages (1–5) and returns the open
// uncertainties, heaviest first. With nothing open it returns the single
// default DEMAND_VALIDATION. flows is not modified.
func Rank(flows []evidence.FlowRecord) []Uncertainty {
	var out []Uncertainty

	byFlow := evidence.ByFlow(flows)
	for n := 1; n <= 5; n++ {
		rec, ok := byFlow[n]
		if !ok || !rec.Locked {
			continue
		}
		switch d := rec.Data.(type) {
		case evidence.PainData:
			if d.Confidence == evidence.ConfidenceGuess {
				out = append(out, newUncertainty(PainUnvalidated))
			}
		case evidence.CustomerData:
			if d.Confidence == evidence.ConfidenceGuess {
				out = append(out, newUncertainty(CustomerUnvalidated))
			}
		case evidence.SolutionData:
			switch {
			case d.Verdict == evidence.SolutionWeak:
				out = append(out, newUncertainty(DifferentiationUnclear))
			case d.Verdict == evidence.SolutionNone && rec.OverrideApplied:
				out = append(out, newUncertainty(NoDifferentiation))
			}
		case evidence.PriceData:
			if d.Honesty == evidence.HonestyContradicted {
				out = append(out, newUncertainty(PriceOptimistic))
			}
			if d.CommittedTier == evidence.TierAggressive {
				out = append(out, newUncertainty(PriceAggressive))
			}
		case evidence.ChannelData:
			if rec.OverrideApplied {
				out = append(out, newUncertainty(ChannelMismatch))
			}
		}
	}

	if len(out) == 0 {
		return []Uncertainty{newUncertainty(DemandValidation)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return catalog[out[i].Type].category < catalog[out[j].Type].category
	})
	return out
}

// Top returns the heaviest uncertainty.
func Top(flows []evidence.FlowRecord) Uncertainty {
	return Rank(flows)[0]
}

// #endregion rank
