package scoring

import (
	"fmt"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region consistency

type bucket struct {
	at    float64
	score int
}

// Buckets are checked in order; the first satisfied one wins.
var (
	cpaStabilityBuckets = []bucket{{80, 8}, {70, 5}}
	netMarginBuckets    = []bucket{{30, 8}, {20, 5}, {15, 2}}
	cancelRateBuckets   = []bucket{{20, 5}, {30, 3}, {40, 1}}
	repeatBuyerBuckets  = []bucket{{15, 5}, {10, 3}, {5, 1}}
	seanEllisBuckets    = []bucket{{40, 4}, {25, 2}}
)

// Consistency scores post-launch steady state (max 30). An absent figure
// scores 0 and is labelled as missing; it is never bucketed as if it were 0.
// The Sean Ellis row is additionally flagged Skipped.
func Consistency(in *evidence.ConsistencyInput) ComponentScore {
	var c evidence.ConsistencyInput
	if in != nil {
		c = *in
	}
	rows := []Row{
		atLeast("cpa_stability", 8, c.CPAStabilityPct, cpaStabilityBuckets, 2),
		atLeast("net_margin", 8, c.NetMarginPct, netMarginBuckets, 0),
		atMost("cancel_rate", 5, c.CancelRatePct, cancelRateBuckets),
		atLeast("repeat_buyers", 5, c.RepeatBuyerPct, repeatBuyerBuckets, 0),
	}

	se := atLeast("sean_ellis", 4, c.SeanEllisPct, seanEllisBuckets, 0)
	if c.SeanEllisPct == nil {
		se.Skipped = true
		se.Label = "skipped"
	}
	rows = append(rows, se)

	return newComponent("consistency", ConsistencyMax, rows)
}

// #endregion consistency

// #region bucketing

func atLeast(name string, max int, v *float64, buckets []bucket, floor int) Row {
	row := Row{Name: name, Max: max, Label: "not provided"}
	if v == nil {
		return row
	}
	row.Label = fmt.Sprintf("%g%%", *v)
	row.Score = floor
	for _, b := range buckets {
		if *v >= b.at {
			row.Score = b.score
			break
		}
	}
	return row
}

func atMost(name string, max int, v *float64, buckets []bucket) Row {
	row := Row{Name: name, Max: max, Label: "not provided"}
	if v == nil {
		return row
	}
	row.Label = fmt.Sprintf("%g%%", *v)
	for _, b := range buckets {
		if *v <= b.at {
			row.Score = b.score
			break
		}
	}
	return row
}

// #endregion bucketing
