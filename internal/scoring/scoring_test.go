package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
)

var f = evidence.Float

func lockedFoundation() []evidence.FlowRecord {
	return []evidence.FlowRecord{
		{FlowNumber: 1, Locked: true, Data: evidence.PainData{Confidence: evidence.ConfidenceCustomers}},
		{FlowNumber: 2, Locked: true, Data: evidence.CustomerData{Confidence: evidence.ConfidenceObserved}},
		{FlowNumber: 3, Locked: true, Data: evidence.SolutionData{Verdict: evidence.SolutionStrong}},
		{FlowNumber: 4, Locked: true, Data: evidence.PriceData{CommittedPriceUSD: 20, Honesty: evidence.HonestyHonest}},
		{FlowNumber: 5, Locked: true, Data: evidence.ChannelData{CapabilityComplete: true}},
	}
}

// strongBundle scores 107 raw before any hard kill.
func strongBundle(price float64) evidence.Bundle {
	return evidence.Bundle{
		Flows: lockedFoundation(),
		Experiments: []evidence.ExperimentRecord{{
			ID: "e1",
			Results: evidence.ExperimentResults{
				Orders: f(5), CPA: f(12), CTR: f(2), MessageToOrderRate: f(0.4),
			},
		}},
		Decisions: []evidence.DecisionRecord{{ExperimentID: "e1", HumanDecision: evidence.GO}},
		Consistency: &evidence.ConsistencyInput{
			CPAStabilityPct: f(90), NetMarginPct: f(35), CancelRatePct: f(10),
			RepeatBuyerPct: f(20), SeanEllisPct: f(50),
		},
		CommittedPriceUSD:   price,
		SignalQualityScore:  80,
		AcceleratingSignals: true,
	}
}

func newEngine() *Engine {
	return NewEngine(DefaultConfig(), gate.DefaultGateConfig())
}

// #region engine-tests

func TestCompute_ScenarioD(t *testing.T) {
	res := newEngine().Compute(strongBundle(20))

	if res.HardKill == nil || res.HardKill.Code != KillCPAOverPrice {
		t.Fatalf("expected CPA_OVER_PRICE hard kill, got %+v", res.HardKill)
	}
	if res.Verdict != NoPMF {
		t.Errorf("expected NO_PMF, got %s", res.Verdict)
	}
	if res.RawScore != 107 {
		t.Errorf("expected raw 107, got %g", res.RawScore)
	}
	if res.Score != 49 {
		t.Errorf("expected score clamped to 49, got %d", res.Score)
	}
}

func TestCompute_ConfirmedWithoutKill(t *testing.T) {
	res := newEngine().Compute(strongBundle(100))

	if res.HardKill != nil {
		t.Fatalf("unexpected hard kill: %+v", res.HardKill)
	}
	if res.Verdict != PMFConfirmed {
		t.Errorf("expected PMF_CONFIRMED, got %s", res.Verdict)
	}
	if res.Score != 100 {
		t.Errorf("expected score clamped to 100, got %d", res.Score)
	}
	if res.Foundation.Score != 40 || res.Experiment.Score != 27 || res.Consistency.Score != 30 {
		t.Errorf("unexpected components: %d/%d/%d",
			res.Foundation.Score, res.Experiment.Score, res.Consistency.Score)
	}
	if res.Modifiers.Total != 10 {
		t.Errorf("expected +10 modifiers, got %g", res.Modifiers.Total)
	}
}

func TestCompute_PriceFromStageFour(t *testing.T) {
	// No explicit price: the locked stage-4 price of 20 applies.
	res := newEngine().Compute(strongBundle(0))
	if res.HardKill == nil || res.HardKill.Code != KillCPAOverPrice {
		t.Fatalf("expected stage-4 price to drive the kill, got %+v", res.HardKill)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	b := strongBundle(20)
	b.Flows[1].Penalties = 3
	b.Decisions = append(b.Decisions, evidence.DecisionRecord{
		ExperimentID: "e1", HumanDecision: evidence.GO, OverrideApplied: true, OverridePenalty: 5,
	})

	e := newEngine()
	first, second := e.Compute(b), e.Compute(b)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ between runs (-first +second):\n%s", diff)
	}
}

func TestCompute_EmptyBundle(t *testing.T) {
	res := newEngine().Compute(evidence.Bundle{})

	if res.HardKill != nil {
		t.Errorf("empty bundle should not hard kill: %+v", res.HardKill)
	}
	if res.Verdict != NoPMF {
		t.Errorf("expected NO_PMF, got %s", res.Verdict)
	}
	// Only integrity (no overrides) scores on an empty bundle.
	if res.Score != 5 {
		t.Errorf("expected score 5, got %d", res.Score)
	}
	if res.Experiment.Rows[0].Label != "No GO experiment" {
		t.Errorf("expected 'No GO experiment' label, got %q", res.Experiment.Rows[0].Label)
	}
}

func TestCompute_NegativeRawClampsToZero(t *testing.T) {
	res := newEngine().Compute(evidence.Bundle{
		Decisions: []evidence.DecisionRecord{{HumanDecision: evidence.FIX, OverrideApplied: true, OverridePenalty: 50}},
	})

	if res.Penalties.Total != -40 || !res.Penalties.Capped {
		t.Fatalf("expected penalties capped at -40, got %+v", res.Penalties)
	}
	// integrity 3 (one override) minus the capped 40.
	if res.RawScore != -37 {
		t.Errorf("expected raw -37, got %g", res.RawScore)
	}
	if res.Score != 0 {
		t.Errorf("expected score clamped to 0, got %d", res.Score)
	}
	if res.Verdict != NoPMF {
		t.Errorf("expected NO_PMF, got %s", res.Verdict)
	}
}

func TestCompute_HardKillDominance(t *testing.T) {
	kills := map[string]func(*evidence.Bundle){
		KillNetMargin:  func(b *evidence.Bundle) { b.Consistency.NetMarginPct = f(10) },
		KillCancelRate: func(b *evidence.Bundle) { b.Consistency.CancelRatePct = f(60) },
		KillZeroOrders: func(b *evidence.Bundle) {
			b.Experiments[0].Results = evidence.ExperimentResults{Spend: f(50), OrdersPlaced: f(0)}
		},
		KillCPAOverPrice: func(b *evidence.Bundle) { b.CommittedPriceUSD = 10 },
	}
	for code, mutate := range kills {
		t.Run(code, func(t *testing.T) {
			b := strongBundle(100)
			mutate(&b)
			res := newEngine().Compute(b)
			if res.HardKill == nil || res.HardKill.Code != code {
				t.Fatalf("expected %s, got %+v", code, res.HardKill)
			}
			if res.Verdict != NoPMF || res.Score > 49 {
				t.Errorf("hard kill not dominant: %s / %d", res.Verdict, res.Score)
			}
		})
	}
}

func TestCheckHardKill_Order(t *testing.T) {
	b := strongBundle(10)
	b.Consistency.NetMarginPct = f(5)
	b.Consistency.CancelRatePct = f(90)
	if k := CheckHardKill(b, DefaultConfig()); k == nil || k.Code != KillNetMargin {
		t.Errorf("expected net margin to win, got %+v", k)
	}
}

func TestCheckHardKill_UndefinedCPAIgnored(t *testing.T) {
	b := strongBundle(20)
	b.Experiments = append(b.Experiments, evidence.ExperimentRecord{
		ID:      "e2",
		Results: evidence.ExperimentResults{Spend: f(100), OrdersPlaced: f(0)},
	})
	b.Experiments[0].Results.CPA = f(5)
	if k := CheckHardKill(b, DefaultConfig()); k != nil {
		t.Errorf("undefined CPA must not count as worst CPA: %+v", k)
	}
}

// #endregion engine-tests

// #region component-tests

func TestFoundation_Tiers(t *testing.T) {
	tests := []struct {
		name string
		flow evidence.FlowRecord
		row  int
		want int
	}{
		{"pain guess", evidence.FlowRecord{FlowNumber: 1, Locked: true, Data: evidence.PainData{Confidence: evidence.ConfidenceGuess}}, 0, 5},
		{"pain unlocked", evidence.FlowRecord{FlowNumber: 1, Data: evidence.PainData{Confidence: evidence.ConfidenceCustomers}}, 0, 0},
		{"customer penalised", evidence.FlowRecord{FlowNumber: 2, Locked: true, Penalties: 2}, 1, 5},
		{"solution weak", evidence.FlowRecord{FlowNumber: 3, Locked: true, Data: evidence.SolutionData{Verdict: evidence.SolutionWeak}}, 2, 5},
		{"solution none overridden", evidence.FlowRecord{FlowNumber: 3, Locked: true, OverrideApplied: true, Data: evidence.SolutionData{Verdict: evidence.SolutionNone}}, 2, 2},
		{"solution none", evidence.FlowRecord{FlowNumber: 3, Locked: true, Data: evidence.SolutionData{Verdict: evidence.SolutionNone}}, 2, 0},
		{"price contradicted", evidence.FlowRecord{FlowNumber: 4, Locked: true, Data: evidence.PriceData{Honesty: evidence.HonestyContradicted}}, 3, 4},
		{"price contradicted overridden", evidence.FlowRecord{FlowNumber: 4, Locked: true, OverrideApplied: true, Data: evidence.PriceData{Honesty: evidence.HonestyContradicted}}, 3, 2},
		{"channel gaps", evidence.FlowRecord{FlowNumber: 5, Locked: true, Data: evidence.ChannelData{}}, 4, 4},
		{"channel weak", evidence.FlowRecord{FlowNumber: 5, Locked: true, Data: evidence.ChannelData{PickedFromWeak: true, CapabilityComplete: true}}, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Foundation([]evidence.FlowRecord{tt.flow})
			if got := c.Rows[tt.row].Score; got != tt.want {
				t.Errorf("row %s = %d, want %d (%s)", c.Rows[tt.row].Name, got, tt.want, c.Rows[tt.row].Label)
			}
			if c.Score != tt.want {
				t.Errorf("component total = %d, want %d", c.Score, tt.want)
			}
		})
	}
}

func TestExperiment_OnlyGODecisionsCount(t *testing.T) {
	b := evidence.Bundle{
		Experiments: []evidence.ExperimentRecord{
			{ID: "e1", Results: evidence.ExperimentResults{Orders: f(9), CPA: f(1), CTR: f(5), MessageToOrderRate: f(0.9)}},
			{ID: "e2", Results: evidence.ExperimentResults{Orders: f(1)}},
		},
		Decisions: []evidence.DecisionRecord{
			{ExperimentID: "e1", HumanDecision: evidence.GO},
			// Re-interpreted: the latest decision for e1 is KILL.
			{ExperimentID: "e1", HumanDecision: evidence.KILL},
			{ExperimentID: "e2", HumanDecision: evidence.GO},
		},
	}
	c := Experiment(b, gate.DefaultGateConfig())
	if c.Rows[0].Score != 7 {
		t.Errorf("expected primary tier 7 from e2 only, got %d", c.Rows[0].Score)
	}
	if c.Rows[1].Score != 0 {
		t.Errorf("expected gates 0 for e2, got %d", c.Rows[1].Score)
	}
}

func TestExperiment_ResultsFromCheckpoint(t *testing.T) {
	b := evidence.Bundle{
		Experiments: []evidence.ExperimentRecord{{ID: "e1"}},
		Signals: []evidence.SignalRecord{
			{ExperimentID: "e1", MetricName: "orders_placed", Value: 1, HoursElapsed: 12},
			{ExperimentID: "e1", MetricName: "orders_placed", Value: 4, HoursElapsed: 48},
		},
		Decisions: []evidence.DecisionRecord{{ExperimentID: "e1", HumanDecision: evidence.GO}},
	}
	c := Experiment(b, gate.DefaultGateConfig())
	if c.Rows[0].Score != 10 {
		t.Errorf("expected tier 10 from latest checkpoint, got %d (%s)", c.Rows[0].Score, c.Rows[0].Label)
	}
}

func TestIntegrityRow(t *testing.T) {
	override := evidence.DecisionRecord{HumanDecision: evidence.FIX, OverrideApplied: true}
	tests := []struct {
		name      string
		decisions []evidence.DecisionRecord
		want      int
	}{
		{"clean", nil, 5},
		{"one override", []evidence.DecisionRecord{override}, 3},
		{"two overrides", []evidence.DecisionRecord{override, override}, 3},
		{"three overrides", []evidence.DecisionRecord{override, override, override}, 2},
		{"kill overridden", []evidence.DecisionRecord{{HumanDecision: evidence.GO, OverrideApplied: true, KillTriggered: true}}, 1},
		{"kill recommendation overridden", []evidence.DecisionRecord{{HumanDecision: evidence.GO, AIRecommendation: evidence.KILL, OverrideApplied: true}}, 1},
		{"kill recommendation followed", []evidence.DecisionRecord{{HumanDecision: evidence.KILL, AIRecommendation: evidence.KILL}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := integrityRow(tt.decisions).Score; got != tt.want {
				t.Errorf("integrity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConsistency_Buckets(t *testing.T) {
	c := Consistency(&evidence.ConsistencyInput{
		CPAStabilityPct: f(50), NetMarginPct: f(20), CancelRatePct: f(30), RepeatBuyerPct: f(5),
	})
	want := []int{2, 5, 3, 1, 0}
	for i, r := range c.Rows {
		if r.Score != want[i] {
			t.Errorf("row %s = %d, want %d", r.Name, r.Score, want[i])
		}
	}
	if !c.Rows[4].Skipped {
		t.Error("absent sean ellis should be skipped")
	}
}

func TestConsistency_AbsentIsNotZero(t *testing.T) {
	c := Consistency(nil)
	if c.Score != 0 {
		t.Errorf("expected 0, got %d", c.Score)
	}
	for _, r := range c.Rows[:4] {
		if r.Label != "not provided" || r.Skipped {
			t.Errorf("row %s: expected 'not provided', got %+v", r.Name, r)
		}
	}
	// A reported 0% cancel rate is the best bucket, unlike an absent one.
	c = Consistency(&evidence.ConsistencyInput{CancelRatePct: f(0)})
	if c.Rows[2].Score != 5 {
		t.Errorf("expected cancel 0%% to score 5, got %d", c.Rows[2].Score)
	}
}

// #endregion component-tests

// #region adjustment-tests

func TestPenalties_CappedWithSources(t *testing.T) {
	flows := []evidence.FlowRecord{
		{FlowNumber: 4, Penalties: 10},
		{FlowNumber: 2, Penalties: 20},
	}
	decisions := []evidence.DecisionRecord{{ExperimentID: "e1", OverridePenalty: 15}}

	adj := Penalties(flows, decisions, PenaltyCap)
	if adj.Total != -40 || !adj.Capped || adj.Raw != -45 {
		t.Errorf("expected capped -40 from -45, got %+v", adj)
	}
	want := []Source{
		{Name: "flow 2 penalty", Amount: -20},
		{Name: "flow 4 penalty", Amount: -10},
		{Name: "override on e1 (decision 1)", Amount: -15},
	}
	if diff := cmp.Diff(want, adj.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if flows[0].FlowNumber != 4 {
		t.Error("input flows were reordered")
	}
}

func TestPenalties_None(t *testing.T) {
	adj := Penalties(nil, nil, PenaltyCap)
	if adj.Total != 0 || adj.Capped || len(adj.Sources) != 0 {
		t.Errorf("expected empty adjustment, got %+v", adj)
	}
}

func TestModifiers(t *testing.T) {
	cfg := DefaultConfig()
	if adj := Modifiers(true, 60, cfg); adj.Total != 10 || adj.Capped {
		t.Errorf("expected +10, got %+v", adj)
	}
	if adj := Modifiers(false, 59.9, cfg); adj.Total != 0 {
		t.Errorf("expected 0, got %+v", adj)
	}
	cfg.AccelerationBonus = 12
	if adj := Modifiers(true, 90, cfg); adj.Total != 15 || !adj.Capped {
		t.Errorf("expected capped +15, got %+v", adj)
	}
}

// #endregion adjustment-tests

// #region stability-tests

func TestCPAStabilityPct(t *testing.T) {
	if _, ok := CPAStabilityPct([]float64{4}); ok {
		t.Error("single sample should not yield stability")
	}
	if got, ok := CPAStabilityPct([]float64{10, 10, 10}); !ok || got != 100 {
		t.Errorf("constant CPA: got %g/%v, want 100", got, ok)
	}
	if got, ok := CPAStabilityPct([]float64{5, 15}); !ok || got != 50 {
		t.Errorf("expected 50, got %g/%v", got, ok)
	}
	if got, _ := CPAStabilityPct([]float64{1, 1, 100}); got != 0 {
		t.Errorf("expected clamp to 0, got %g", got)
	}
}

func TestEnrich(t *testing.T) {
	b := evidence.Bundle{
		Experiments: []evidence.ExperimentRecord{{ID: "e1"}},
		Signals: []evidence.SignalRecord{
			{ExperimentID: "e1", MetricName: "cpa", Value: 10, HoursElapsed: 24},
			{ExperimentID: "e1", MetricName: "cpa", Value: 10, HoursElapsed: 48},
		},
	}
	out := Enrich(b)
	if out.Consistency == nil || evidence.Num(out.Consistency.CPAStabilityPct) != 100 {
		t.Fatalf("expected derived stability 100, got %+v", out.Consistency)
	}
	if b.Consistency != nil {
		t.Error("input bundle was modified")
	}

	b.Consistency = &evidence.ConsistencyInput{CPAStabilityPct: f(42)}
	if got := Enrich(b).Consistency.CPAStabilityPct; *got != 42 {
		t.Errorf("explicit stability overwritten: %g", *got)
	}
}

// #endregion stability-tests
