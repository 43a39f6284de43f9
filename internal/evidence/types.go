package evidence

// #region classification
// Classification is the signal/noise label assigned to an experiment metric.
type Classification string

const (
	Noise  Classification = "NOISE"
	Weak   Classification = "WEAK"
	Strong Classification = "STRONG"
	PMF    Classification = "PMF"
)

// Valid reports whether c is one of the four known labels.
func (c Classification) Valid() bool {
	switch c {
	case Noise, Weak, Strong, PMF:
		return true
	}
	return false
}

// #endregion classification

// #region decision
// Decision is a GO/FIX/KILL verdict on an experiment, human or rule-based.
type Decision string

const (
	GO   Decision = "GO"
	FIX  Decision = "FIX"
	KILL Decision = "KILL"
)

// #endregion decision

// #region flow-record
// FlowRecord is one questionnaire stage for a product. Locked never goes
// back to false once set and Penalties only accumulates.
type FlowRecord struct {
	FlowNumber      int       `json:"flow_number" validate:"min=1,max=10"`
	Data            StageData `json:"data"`
	Locked          bool      `json:"locked"`
	Penalties       float64   `json:"penalties" validate:"min=0"`
	OverrideApplied bool      `json:"override_applied"`
}

// #endregion flow-record

// #region experiment-record
// PrimaryMetric is the single number an experiment is judged on.
type PrimaryMetric struct {
	Target float64 `json:"target"`
	Unit   string  `json:"unit"`
}

// Criteria holds the operator's free-text success and failure conditions.
type Criteria struct {
	Success string `json:"success_criteria,omitempty"`
	Failure string `json:"failure_criteria,omitempty"`
}

// ExperimentResults are the numbers observed for one experiment. A nil field
// was never reported, which is different from a reported zero.
type ExperimentResults struct {
	Spend              *float64 `json:"spend,omitempty"`
	Impressions        *float64 `json:"impressions,omitempty"`
	Clicks             *float64 `json:"clicks,omitempty"`
	MessagesReceived   *float64 `json:"messages_received,omitempty"`
	Orders             *float64 `json:"orders,omitempty"`
	OrdersPlaced       *float64 `json:"orders_placed,omitempty"`
	OrdersDelivered    *float64 `json:"orders_delivered,omitempty"`
	OrdersCanceled     *float64 `json:"orders_canceled,omitempty"`
	CPA                *float64 `json:"cpa,omitempty"`
	CTR                *float64 `json:"ctr,omitempty"`
	MessageToOrderRate *float64 `json:"message_to_order_rate,omitempty"`
	CancelRate         *float64 `json:"cancel_rate,omitempty"`
}

// Empty reports whether no numeric result was recorded at all.
func (r ExperimentResults) Empty() bool {
	for _, p := range []*float64{
		r.Spend, r.Impressions, r.Clicks, r.MessagesReceived, r.Orders, r.OrdersPlaced,
		r.OrdersDelivered, r.OrdersCanceled, r.CPA, r.CTR, r.MessageToOrderRate, r.CancelRate,
	} {
		if p != nil {
			return false
		}
	}
	return true
}

// OrderCount returns orders, falling back to orders_placed, then 0.
func (r ExperimentResults) OrderCount() float64 {
	if r.Orders != nil {
		return *r.Orders
	}
	return Num(r.OrdersPlaced)
}

// ResolvedCPA returns the reported CPA if present, otherwise spend/orders_placed
// when orders_placed was reported. Anything else is Undefined.
func (r ExperimentResults) ResolvedCPA() CPA {
	if r.CPA != nil {
		return Defined(*r.CPA)
	}
	if r.OrdersPlaced != nil && *r.OrdersPlaced > 0 {
		return Defined(Num(r.Spend) / *r.OrdersPlaced)
	}
	return Undefined()
}

// ResolvedCTR returns the reported ctr, or clicks/impressions*100 when only
// the counters were reported.
func (r ExperimentResults) ResolvedCTR() float64 {
	if r.CTR != nil {
		return *r.CTR
	}
	if imp := Num(r.Impressions); imp > 0 {
		return Num(r.Clicks) / imp * 100
	}
	return 0
}

// ResolvedMessageToOrderRate returns the reported rate (a fraction, not a
// percentage), or orders_placed/messages_received from the counters.
func (r ExperimentResults) ResolvedMessageToOrderRate() float64 {
	if r.MessageToOrderRate != nil {
		return *r.MessageToOrderRate
	}
	if msgs := Num(r.MessagesReceived); msgs > 0 {
		return Num(r.OrdersPlaced) / msgs
	}
	return 0
}

// ExperimentRecord is one market experiment owned by a product.
type ExperimentRecord struct {
	ID            string            `json:"id" validate:"required"`
	Hypothesis    string            `json:"hypothesis"`
	PrimaryMetric PrimaryMetric     `json:"primary_metric"`
	KillCondition string            `json:"kill_condition"`
	Criteria      Criteria          `json:"criteria"`
	Results       ExperimentResults `json:"results"`
	Status        string            `json:"status"`
}

// #endregion experiment-record

// #region signal-record
// SignalRecord is one metric reading at an experiment checkpoint. The log is
// append-only; several records share HoursElapsed per checkpoint.
type SignalRecord struct {
	ExperimentID   string         `json:"experiment_id" validate:"required"`
	MetricName     string         `json:"metric_name" validate:"required"`
	Value          float64        `json:"value"`
	Classification Classification `json:"classification,omitempty" validate:"omitempty,oneof=NOISE WEAK STRONG PMF"`
	HoursElapsed   float64        `json:"hours_elapsed" validate:"min=0"`
}

// #endregion signal-record

// #region decision-record
// DecisionRecord is one human verdict event. KillTriggered records whether the
// experiment's kill condition had fired when the verdict was given.
type DecisionRecord struct {
	ExperimentID     string   `json:"experiment_id,omitempty"`
	HumanDecision    Decision `json:"human_decision" validate:"oneof=GO FIX KILL"`
	AIRecommendation Decision `json:"ai_recommendation,omitempty" validate:"omitempty,oneof=GO FIX KILL"`
	OverrideApplied  bool     `json:"override_applied"`
	OverridePenalty  float64  `json:"override_penalty" validate:"min=0"`
	KillTriggered    bool     `json:"kill_triggered"`
}

// #endregion decision-record

// #region consistency-input
// ConsistencyInput holds post-launch steady-state figures. Any field may be
// nil, and nil is not the same as zero.
type ConsistencyInput struct {
	CPAStabilityPct *float64 `json:"cpa_stability_pct,omitempty"`
	NetMarginPct    *float64 `json:"net_margin_pct,omitempty"`
	CancelRatePct   *float64 `json:"cancel_rate_pct,omitempty"`
	RepeatBuyerPct  *float64 `json:"repeat_buyer_pct,omitempty"`
	SeanEllisPct    *float64 `json:"sean_ellis_pct,omitempty"`
}

// #endregion consistency-input

// #region bundle
// Bundle is the full materialized input set for scoring one product.
type Bundle struct {
	Flows               []FlowRecord       `json:"flows"`
	Experiments         []ExperimentRecord `json:"experiments"`
	Signals             []SignalRecord     `json:"signals"`
	Decisions           []DecisionRecord   `json:"decisions"`
	Consistency         *ConsistencyInput  `json:"consistency,omitempty"`
	CommittedPriceUSD   float64            `json:"committed_price_usd"`
	SignalQualityScore  float64            `json:"signal_quality_score"`
	AcceleratingSignals bool               `json:"accelerating_signals"`
}

// #endregion bundle

// #region helpers
// Num dereferences p, treating nil as 0.
func Num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Float returns a pointer to v. Handy for building results and consistency
// inputs in code and tests.
func Float(v float64) *float64 {
	return &v
}

// #endregion helpers
