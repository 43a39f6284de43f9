package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region mock

// mockJudge returns pre-configured labels or an error.
type mockJudge struct {
	labels map[string]evidence.Classification
	err    error
	seen   Classifications
}

func (m *mockJudge) Classify(_ context.Context, _ RawCounters, _ Metrics, rule Classifications) (map[string]evidence.Classification, error) {
	m.seen = rule
	if m.err != nil {
		return nil, m.err
	}
	return m.labels, nil
}

func scenarioA() RawCounters {
	return RawCounters{
		Spend: 30, Impressions: 1000, Clicks: 20, MessagesReceived: 15,
		OrdersPlaced: 3, OrdersDelivered: 2, OrdersCanceled: 1, HoursElapsed: 24,
	}
}

// #endregion mock

// #region derive-tests

func TestDerive_ScenarioA(t *testing.T) {
	m := Derive(scenarioA())

	if m.CTR != 2.0 {
		t.Errorf("ctr: expected 2.0, got %v", m.CTR)
	}
	if v, ok := m.CPA.Value(); !ok || v != 10.0 {
		t.Errorf("cpa: expected 10.0, got %v (defined=%v)", v, ok)
	}
	if m.MessageToOrderRate != 0.2 {
		t.Errorf("message_to_order_rate: expected 0.2, got %v", m.MessageToOrderRate)
	}
	if m.CancelRate != 33.33 {
		t.Errorf("cancel_rate: expected 33.33, got %v", m.CancelRate)
	}
}

func TestDerive_NoOrdersLeavesCPAUndefined(t *testing.T) {
	m := Derive(RawCounters{Spend: 50, Impressions: 100, Clicks: 3})
	if m.CPA.IsDefined() {
		t.Fatalf("expected undefined cpa, got %s", m.CPA)
	}
	if m.MessageToOrderRate != 0 {
		t.Errorf("expected 0 rate with no messages, got %v", m.MessageToOrderRate)
	}
}

func TestDerive_CancelRateFallbacks(t *testing.T) {
	// orders_placed missing: denominator is delivered+canceled.
	m := Derive(RawCounters{OrdersDelivered: 3, OrdersCanceled: 1})
	if m.CancelRate != 25 {
		t.Errorf("expected 25, got %v", m.CancelRate)
	}
	// Nothing at all: denominator is 1.
	m = Derive(RawCounters{})
	if m.CancelRate != 0 {
		t.Errorf("expected 0, got %v", m.CancelRate)
	}
}

func TestRawCountersFromMap_NonNumericIsZero(t *testing.T) {
	raw := RawCountersFromMap(map[string]any{
		"spend":       "lots",
		"clicks":      12,
		"impressions": 400.0,
	})
	if raw.Spend != 0 {
		t.Errorf("expected non-numeric spend to be 0, got %v", raw.Spend)
	}
	if raw.Clicks != 12 || raw.Impressions != 400 {
		t.Errorf("unexpected counters: %+v", raw)
	}
}

// #endregion derive-tests

// #region rule-tests

func TestClassifyByRules_ScenarioA(t *testing.T) {
	raw := scenarioA()
	got := ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())

	want := map[string]evidence.Classification{
		"impressions":   evidence.Noise,
		"orders_placed": evidence.Strong,
		"cpa":           evidence.Strong,
	}
	labels := make(map[string]evidence.Classification, len(got))
	for k, v := range got {
		labels[k] = v.Classification
	}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("rule labels mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got["clicks"]; ok {
		t.Error("clicks should stay unclassified when messages were received")
	}
	if _, ok := got["cancel_rate"]; ok {
		t.Error("cancel_rate 33.33 should stay unclassified")
	}
}

func TestClassifyByRules_WeakSignals(t *testing.T) {
	raw := RawCounters{Impressions: 500, Clicks: 15, MessagesReceived: 0}
	got := ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())
	if got["clicks"].Classification != evidence.Weak {
		t.Errorf("expected clicks WEAK, got %+v", got["clicks"])
	}

	raw = RawCounters{MessagesReceived: 12, OrdersPlaced: 0}
	got = ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())
	if got["messages_received"].Classification != evidence.Weak {
		t.Errorf("expected messages_received WEAK, got %+v", got["messages_received"])
	}

	raw = RawCounters{OrdersPlaced: 5, OrdersCanceled: 2, Spend: 100}
	got = ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())
	if got["cancel_rate"].Classification != evidence.Weak {
		t.Errorf("expected cancel_rate WEAK at 40%%, got %+v", got["cancel_rate"])
	}
	if _, ok := got["cpa"]; ok {
		t.Error("cpa 20 exceeds 15 and should not be STRONG")
	}
}

func TestClassifyByRules_ImpressionsAlwaysNoise(t *testing.T) {
	for _, raw := range []RawCounters{{}, scenarioA(), {Impressions: 1e6, Clicks: 1e5}} {
		got := ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())
		if got["impressions"].Classification != evidence.Noise {
			t.Errorf("impressions must be NOISE for %+v, got %+v", raw, got["impressions"])
		}
	}
}

// #endregion rule-tests

// #region merge-tests

func TestMerge_RuleLabelsAreImmutable(t *testing.T) {
	raw := scenarioA()
	rule := ClassifyByRules(raw, Derive(raw), DefaultRuleConfig())

	merged := Merge(rule, map[string]evidence.Classification{
		"orders_placed": evidence.Weak,
		"cpa":           evidence.Noise,
		"clicks":        evidence.Strong,
	})

	if merged["orders_placed"].Classification != evidence.Strong || merged["orders_placed"].Source != SourceRule {
		t.Errorf("orders_placed was reclassified: %+v", merged["orders_placed"])
	}
	if merged["cpa"].Classification != evidence.Strong {
		t.Errorf("cpa was reclassified: %+v", merged["cpa"])
	}
	if merged["clicks"].Classification != evidence.Strong || merged["clicks"].Source != SourceJudge {
		t.Errorf("expected judge label on clicks, got %+v", merged["clicks"])
	}
}

func TestMerge_VanityCannotBeLifted(t *testing.T) {
	merged := Merge(Classifications{}, map[string]evidence.Classification{
		"likes":          evidence.PMF,
		"Profile Visits": evidence.Strong,
		"story_views":    evidence.Weak,
	})
	for _, name := range []string{"likes", "Profile Visits", "story_views"} {
		if merged[name].Classification != evidence.Noise {
			t.Errorf("%s: expected NOISE, got %+v", name, merged[name])
		}
	}
	if err := EnforceVanity(merged); err != nil {
		t.Errorf("merged output violates vanity invariant: %v", err)
	}
}

func TestMerge_DropsUnknownLabels(t *testing.T) {
	merged := Merge(nil, map[string]evidence.Classification{"repeat_rate": "GREAT"})
	if _, ok := merged["repeat_rate"]; ok {
		t.Error("unknown label should be dropped")
	}
}

func TestEnforceVanity_RejectsOverride(t *testing.T) {
	c := Classifications{"reach": {Classification: evidence.Strong, Source: SourceJudge}}
	if err := EnforceVanity(c); !errors.Is(err, ErrVanityOverride) {
		t.Fatalf("expected ErrVanityOverride, got %v", err)
	}
}

func TestVanityMetrics_AllNoiseForAnyInput(t *testing.T) {
	for _, name := range VanityMetrics() {
		for _, c := range []evidence.Classification{evidence.Weak, evidence.Strong, evidence.PMF} {
			merged := Merge(nil, map[string]evidence.Classification{name: c})
			if merged[name].Classification != evidence.Noise {
				t.Errorf("%s labelled %s survived merge", name, c)
			}
			if err := CheckLabel(name, c); err == nil {
				t.Errorf("CheckLabel(%s, %s) should fail", name, c)
			}
		}
	}
}

// #endregion merge-tests

// #region producer-tests

func TestProduce_NilJudgeUsesRulesOnly(t *testing.T) {
	p := NewProducer(nil, DefaultRuleConfig())
	r := p.Produce(context.Background(), scenarioA())
	if diff := cmp.Diff(r.Rule, r.Classifications); diff != "" {
		t.Errorf("expected rule labels only (-rule +got):\n%s", diff)
	}
}

func TestProduce_JudgeLabelsMergedAlongside(t *testing.T) {
	j := &mockJudge{labels: map[string]evidence.Classification{
		"clicks":      evidence.Strong,
		"impressions": evidence.PMF,
	}}
	p := NewProducer(j, DefaultRuleConfig())
	r := p.Produce(context.Background(), scenarioA())

	if j.seen == nil {
		t.Fatal("judge should receive the rule labels")
	}
	if r.Classifications["clicks"].Source != SourceJudge {
		t.Errorf("expected judge label on clicks, got %+v", r.Classifications["clicks"])
	}
	if r.Classifications["impressions"].Classification != evidence.Noise {
		t.Errorf("impressions must stay NOISE, got %+v", r.Classifications["impressions"])
	}
}

func TestProduce_JudgeErrorDegrades(t *testing.T) {
	p := NewProducer(&mockJudge{err: errors.New("unavailable")}, DefaultRuleConfig())
	r := p.Produce(context.Background(), scenarioA())
	if r.JudgeError == "" {
		t.Error("expected judge error to be recorded")
	}
	if len(r.Classifications) != len(r.Rule) {
		t.Errorf("expected rule labels only, got %d labels", len(r.Classifications))
	}
}

// #endregion producer-tests

// #region acceleration-tests

func TestAccelerating(t *testing.T) {
	growing := []evidence.SignalRecord{
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 0, HoursElapsed: 0},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 1, HoursElapsed: 12},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 4, HoursElapsed: 24},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 10, HoursElapsed: 36},
	}
	if !Accelerating(growing, "e1", "orders_placed") {
		t.Error("expected accelerating orders")
	}

	flat := []evidence.SignalRecord{
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 0, HoursElapsed: 0},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 6, HoursElapsed: 12},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 8, HoursElapsed: 24},
		{ExperimentID: "e1", MetricName: "orders_placed", Value: 9, HoursElapsed: 36},
	}
	if Accelerating(flat, "e1", "orders_placed") {
		t.Error("decelerating orders reported as accelerating")
	}

	if Accelerating(growing[:2], "e1", "orders_placed") {
		t.Error("two checkpoints are not enough to call a trend")
	}
}

func TestAnyAccelerating(t *testing.T) {
	records := []evidence.SignalRecord{
		{ExperimentID: "e2", MetricName: "orders_placed", Value: 0, HoursElapsed: 0},
		{ExperimentID: "e2", MetricName: "orders_placed", Value: 1, HoursElapsed: 10},
		{ExperimentID: "e2", MetricName: "orders_placed", Value: 5, HoursElapsed: 20},
	}
	if !AnyAccelerating(records, []string{"e1", "e2"}) {
		t.Error("expected e2 to accelerate")
	}
}

// #endregion acceleration-tests
