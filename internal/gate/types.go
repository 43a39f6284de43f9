package gate

import "github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"

// #region thresholds
// Gate cutoffs.
const (
	MaxViableCPA         = 2.50 // USD per order
	MinCTRPct            = 1.0
	MinMessageToOrderPct = 30.0
	MinOrders            = 3.0

	// GateCount is fixed: CPA, CTR, message-to-order, orders.
	GateCount = 4
)

// Gate names.
const (
	GateCPA            = "cpa"
	GateCTR            = "ctr"
	GateMessageToOrder = "message_to_order"
	GateOrders         = "orders"
)

// #endregion thresholds

// #region gate-config
// GateConfig holds the four gate thresholds.
type GateConfig struct {
	MaxCPA               float64 `yaml:"max_cpa"`
	MinCTRPct            float64 `yaml:"min_ctr_pct"`
	MinMessageToOrderPct float64 `yaml:"min_message_to_order_pct"`
	MinOrders            float64 `yaml:"min_orders"`
}

// DefaultGateConfig returns the production thresholds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxCPA:               MaxViableCPA,
		MinCTRPct:            MinCTRPct,
		MinMessageToOrderPct: MinMessageToOrderPct,
		MinOrders:            MinOrders,
	}
}

// #endregion gate-config

// #region gate-result
// GateResult is one gate's outcome with the numbers needed to display it.
// Value is nil when the metric is undefined (CPA without orders).
type GateResult struct {
	Name       string   `json:"name"`
	Value      *float64 `json:"value"`
	Display    string   `json:"display"`
	Comparator string   `json:"comparator"`
	Threshold  float64  `json:"threshold"`
	Passed     bool     `json:"passed"`
}

// Report is the outcome of all four gates.
type Report struct {
	Gates     [GateCount]GateResult `json:"gates"`
	PassCount int                   `json:"pass_count"`
}

// #endregion gate-result

// #region criteria-verdict
// CriteriaVerdict is how results compare to the free-text criteria.
type CriteriaVerdict string

const (
	CriteriaSuccess       CriteriaVerdict = "SUCCESS"
	CriteriaFailure       CriteriaVerdict = "FAILURE"
	CriteriaContradictory CriteriaVerdict = "CONTRADICTORY"
	CriteriaAmbiguous     CriteriaVerdict = "AMBIGUOUS"
)

// #endregion criteria-verdict

// #region recommendation
// Confidence of a rule recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
)

// Recommendation is the rule-based GO/FIX/KILL call.
type Recommendation struct {
	Decision   evidence.Decision `json:"decision"`
	Confidence Confidence        `json:"confidence"`
	Reason     string            `json:"reason"`
}

// Assessment bundles gates, criteria and recommendation for one experiment.
type Assessment struct {
	ExperimentID   string          `json:"experiment_id"`
	Report         Report          `json:"report"`
	Criteria       CriteriaVerdict `json:"criteria"`
	KillTriggered  bool            `json:"kill_triggered"`
	Recommendation Recommendation  `json:"recommendation"`
}

// #endregion recommendation
