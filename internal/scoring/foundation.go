package scoring

import (
	"fmt"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region foundation

// Foundation scores the five pre-experiment stages (max 40) from lock state
// and the stored qualitative verdicts.
func Foundation(flows []evidence.FlowRecord) ComponentScore {
	byFlow := evidence.ByFlow(flows)
	rows := []Row{
		painRow(byFlow[1]),
		customerRow(byFlow[2]),
		solutionRow(byFlow[3]),
		priceRow(byFlow[4]),
		channelRow(byFlow[5]),
	}
	return newComponent("foundation", FoundationMax, rows)
}

// #endregion foundation

// #region stage-rows

func painRow(rec evidence.FlowRecord) Row {
	row := Row{Name: "pain", Max: 10, Label: "not locked"}
	d, ok := rec.Data.(evidence.PainData)
	if !rec.Locked || !ok {
		return row
	}
	switch d.Confidence {
	case evidence.ConfidenceCustomers, evidence.ConfidenceObserved:
		row.Score = 10
	case evidence.ConfidenceGuess:
		row.Score = 5
	}
	row.Label = fmt.Sprintf("confidence %s", orNone(string(d.Confidence)))
	return row
}

func customerRow(rec evidence.FlowRecord) Row {
	row := Row{Name: "customer", Max: 10, Label: "not locked"}
	if !rec.Locked {
		return row
	}
	if rec.Penalties == 0 {
		row.Score, row.Label = 10, "locked without penalty"
		return row
	}
	row.Score, row.Label = 5, fmt.Sprintf("locked with penalty %g", rec.Penalties)
	return row
}

func solutionRow(rec evidence.FlowRecord) Row {
	row := Row{Name: "solution", Max: 10, Label: "not locked"}
	d, ok := rec.Data.(evidence.SolutionData)
	if !rec.Locked || !ok {
		return row
	}
	row.Label = fmt.Sprintf("verdict %s", orNone(string(d.Verdict)))
	switch {
	case d.Verdict == evidence.SolutionStrong:
		row.Score = 10
	case d.Verdict == evidence.SolutionWeak:
		row.Score = 5
	case d.Verdict == evidence.SolutionNone && rec.OverrideApplied:
		row.Score, row.Label = 2, "verdict NONE, overridden"
	}
	return row
}

func priceRow(rec evidence.FlowRecord) Row {
	row := Row{Name: "price", Max: 5, Label: "not locked"}
	d, ok := rec.Data.(evidence.PriceData)
	if !rec.Locked || !ok {
		return row
	}
	row.Label = fmt.Sprintf("honesty %s", orNone(string(d.Honesty)))
	switch {
	case d.Honesty == evidence.HonestyHonest:
		row.Score = 5
	case d.Honesty == evidence.HonestyContradicted && !rec.OverrideApplied:
		row.Score = 4
	case d.Honesty == evidence.HonestyContradicted:
		row.Score, row.Label = 2, "honesty CONTRADICTED, overridden"
	}
	return row
}

func channelRow(rec evidence.FlowRecord) Row {
	row := Row{Name: "channel", Max: 5, Label: "not locked"}
	d, ok := rec.Data.(evidence.ChannelData)
	if !rec.Locked || !ok {
		return row
	}
	switch {
	case d.PickedFromWeak:
		row.Score, row.Label = 2, "picked from weak options"
	case d.CapabilityComplete:
		row.Score, row.Label = 5, "capability complete"
	default:
		row.Score, row.Label = 4, "capability gaps unresolved"
	}
	return row
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// #endregion stage-rows
