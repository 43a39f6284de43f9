package signals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region vanity

// vanityMetrics are permanently NOISE.
var vanityMetrics = []string{
	"views", "impressions", "reach", "likes", "shares", "saves",
	"followers", "follower_count", "profile_visits", "watch_time",
	"positive_comments", "story_views",
}

var vanitySet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(vanityMetrics))
	for _, m := range vanityMetrics {
		s[m] = struct{}{}
	}
	return s
}()

// VanityMetrics returns a copy of the vanity metric names.
func VanityMetrics() []string {
	out := make([]string, len(vanityMetrics))
	copy(out, vanityMetrics)
	return out
}

// IsVanity reports whether metric is a vanity metric. Case and spacing are
// normalized, so "Profile Visits" matches profile_visits.
func IsVanity(metric string) bool {
	_, ok := vanitySet[normalize(metric)]
	return ok
}

// CheckLabel rejects a non-NOISE label on a vanity metric.
func CheckLabel(metric string, c evidence.Classification) error {
	if c != "" && c != evidence.Noise && IsVanity(metric) {
		return fmt.Errorf("%w: %s labelled %s", ErrVanityOverride, metric, c)
	}
	return nil
}

// EnforceVanity checks every label in c.
func EnforceVanity(c Classifications) error {
	for _, name := range c.Metrics() {
		if err := CheckLabel(name, c[name].Classification); err != nil {
			return err
		}
	}
	return nil
}

func normalize(metric string) string {
	m := strings.ToLower(strings.TrimSpace(metric))
	m = strings.ReplaceAll(m, " ", "_")
	return strings.ReplaceAll(m, "-", "_")
}

// #endregion vanity

// #region classify-by-rules

// ClassifyByRules applies the deterministic rules. Its labels are final: no
// later step may change a metric it classified.
func ClassifyByRules(raw RawCounters, m Metrics, cfg RuleConfig) Classifications {
	out := Classifications{
		"impressions": {Classification: evidence.Noise, Source: SourceRule, Reason: "vanity metric"},
	}

	if raw.Clicks >= cfg.ClicksWithoutMessagesMin && raw.MessagesReceived == 0 {
		out["clicks"] = Label{Classification: evidence.Weak, Source: SourceRule, Reason: "clicks without a single message"}
	}

	if raw.OrdersPlaced >= cfg.StrongOrdersMin && m.CPA.AtMost(cfg.StrongCPAMax) {
		reason := fmt.Sprintf("%.0f orders at cpa %s", raw.OrdersPlaced, m.CPA)
		out["orders_placed"] = Label{Classification: evidence.Strong, Source: SourceRule, Reason: reason}
		out["cpa"] = Label{Classification: evidence.Strong, Source: SourceRule, Reason: reason}
	}

	if raw.MessagesReceived >= cfg.MessagesWithoutOrdersMin && raw.OrdersPlaced == 0 {
		out["messages_received"] = Label{Classification: evidence.Weak, Source: SourceRule, Reason: "messages without orders"}
	}

	if m.CancelRate >= cfg.WeakCancelRatePct {
		out["cancel_rate"] = Label{Classification: evidence.Weak, Source: SourceRule, Reason: fmt.Sprintf("cancel rate %.2f%%", m.CancelRate)}
	}

	return out
}

// #endregion classify-by-rules

// #region merge

// Merge adds qualitative labels alongside the rule labels. Rule labels win on
// any metric they cover, vanity metrics are forced to NOISE, and unknown
// labels are dropped.
func Merge(rule Classifications, qualitative map[string]evidence.Classification) Classifications {
	out := make(Classifications, len(rule)+len(qualitative))
	for k, v := range rule {
		out[k] = v
	}

	names := make([]string, 0, len(qualitative))
	for k := range qualitative {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ruled := rule[name]; ruled {
			continue
		}
		c := qualitative[name]
		if IsVanity(name) {
			out[name] = Label{Classification: evidence.Noise, Source: SourceVanity, Reason: "vanity metric"}
			continue
		}
		if !c.Valid() {
			continue
		}
		out[name] = Label{Classification: c, Source: SourceJudge}
	}

	for name, l := range out {
		if IsVanity(name) && l.Classification != evidence.Noise {
			out[name] = Label{Classification: evidence.Noise, Source: SourceVanity, Reason: "vanity metric"}
		}
	}
	return out
}

// Metrics returns the classified metric names in sorted order.
func (c Classifications) Metrics() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// #endregion merge
