package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownFlow is returned when a flow number has no stage payload type.
var ErrUnknownFlow = errors.New("unknown flow number")

// #region stage-enums

// Confidence is how the operator knows the pain or customer is real.
type Confidence string

const (
	ConfidenceCustomers Confidence = "customers"
	ConfidenceObserved  Confidence = "observed"
	ConfidenceGuess     Confidence = "guess"
)

// SolutionVerdict is the stored differentiation judgment for stage 3.
type SolutionVerdict string

const (
	SolutionStrong SolutionVerdict = "STRONG"
	SolutionWeak   SolutionVerdict = "WEAK"
	SolutionNone   SolutionVerdict = "NONE"
)

// Honesty is the price reality-check verdict for stage 4.
type Honesty string

const (
	HonestyHonest       Honesty = "HONEST"
	HonestyContradicted Honesty = "CONTRADICTED"
)

// PriceTier is the pricing tier the operator committed to.
type PriceTier string

const (
	TierConservative PriceTier = "CONSERVATIVE"
	TierStandard     PriceTier = "STANDARD"
	TierAggressive   PriceTier = "AGGRESSIVE"
)

// #endregion stage-enums

// #region stage-data
// StageData is the typed payload of one flow. The set of implementations is
// closed: one per flow number 1..10.
type StageData interface {
	Flow() int
	isStageData()
}

// PainData is stage 1: the pain being solved.
type PainData struct {
	Statement  string     `json:"pain_statement,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// CustomerData is stage 2: who has the pain.
type CustomerData struct {
	Segment    string     `json:"segment,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// SolutionData is stage 3: differentiation of the solution.
type SolutionData struct {
	Differentiator string          `json:"differentiator,omitempty"`
	Verdict        SolutionVerdict `json:"verdict"`
}

// PriceData is stage 4: committed price and its honesty check.
type PriceData struct {
	CommittedPriceUSD float64   `json:"committed_price_usd"`
	CommittedTier     PriceTier `json:"committed_tier,omitempty"`
	Honesty           Honesty   `json:"honesty_verdict,omitempty"`
}

// ChannelData is stage 5: the acquisition channel.
type ChannelData struct {
	Channel            string `json:"channel,omitempty"`
	PickedFromWeak     bool   `json:"picked_from_weak"`
	CapabilityComplete bool   `json:"capability_complete"`
}

// ExperimentDesignData is stage 6: the experiment built to test the top uncertainty.
type ExperimentDesignData struct {
	ExperimentID      string `json:"experiment_id,omitempty"`
	TargetUncertainty string `json:"target_uncertainty,omitempty"`
}

// ExecutionData is stage 7: the live run of an experiment.
type ExecutionData struct {
	ExperimentID string `json:"experiment_id,omitempty"`
}

// InterpretationData is stage 8: the human reading of results.
type InterpretationData struct {
	ExperimentID string   `json:"experiment_id,omitempty"`
	Decision     Decision `json:"decision,omitempty"`
}

// PostLaunchData is stage 9: steady-state consistency figures.
type PostLaunchData struct {
	Consistency ConsistencyInput `json:"consistency"`
}

// VerdictData is stage 10: the recorded final verdict.
type VerdictData struct {
	Verdict string `json:"verdict,omitempty"`
	Score   int    `json:"score"`
}

func (PainData) Flow() int             { return 1 }
func (CustomerData) Flow() int         { return 2 }
func (SolutionData) Flow() int         { return 3 }
func (PriceData) Flow() int            { return 4 }
func (ChannelData) Flow() int          { return 5 }
func (ExperimentDesignData) Flow() int { return 6 }
func (ExecutionData) Flow() int        { return 7 }
func (InterpretationData) Flow() int   { return 8 }
func (PostLaunchData) Flow() int       { return 9 }
func (VerdictData) Flow() int          { return 10 }

func (PainData) isStageData()             {}
func (CustomerData) isStageData()         {}
func (SolutionData) isStageData()         {}
func (PriceData) isStageData()            {}
func (ChannelData) isStageData()          {}
func (ExperimentDesignData) isStageData() {}
func (ExecutionData) isStageData()        {}
func (InterpretationData) isStageData()   {}
func (PostLaunchData) isStageData()       {}
func (VerdictData) isStageData()          {}

// #endregion stage-data

// #region decode
// DecodeStageData parses a raw payload into the variant for flowNumber.
// An empty payload yields the zero value of that variant.
func DecodeStageData(flowNumber int, raw []byte) (StageData, error) {
	var target StageData
	switch flowNumber {
	case 1:
		target = &PainData{}
	case 2:
		target = &CustomerData{}
	case 3:
		target = &SolutionData{}
	case 4:
		target = &PriceData{}
	case 5:
		target = &ChannelData{}
	case 6:
		target = &ExperimentDesignData{}
	case 7:
		target = &ExecutionData{}
	case 8:
		target = &InterpretationData{}
	case 9:
		target = &PostLaunchData{}
	case 10:
		target = &VerdictData{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFlow, flowNumber)
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode flow %d: %w", flowNumber, err)
		}
	}
	return deref(target), nil
}

// deref turns the pointer used for decoding back into a value variant.
func deref(d StageData) StageData {
	switch v := d.(type) {
	case *PainData:
		return *v
	case *CustomerData:
		return *v
	case *SolutionData:
		return *v
	case *PriceData:
		return *v
	case *ChannelData:
		return *v
	case *ExperimentDesignData:
		return *v
	case *ExecutionData:
		return *v
	case *InterpretationData:
		return *v
	case *PostLaunchData:
		return *v
	case *VerdictData:
		return *v
	}
	return d
}

// UnmarshalJSON decodes data according to flow_number.
func (f *FlowRecord) UnmarshalJSON(b []byte) error {
	var aux struct {
		FlowNumber      int             `json:"flow_number"`
		Data            json.RawMessage `json:"data"`
		Locked          bool            `json:"locked"`
		Penalties       float64         `json:"penalties"`
		OverrideApplied bool            `json:"override_applied"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	data, err := DecodeStageData(aux.FlowNumber, aux.Data)
	if err != nil {
		return err
	}
	*f = FlowRecord{
		FlowNumber:      aux.FlowNumber,
		Data:            data,
		Locked:          aux.Locked,
		Penalties:       aux.Penalties,
		OverrideApplied: aux.OverrideApplied,
	}
	return nil
}

// UnmarshalJSON keeps only values that decode as numbers. Anything else,
// including a results value that is not an object, counts as not reported.
func (r *ExperimentResults) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		*r = ExperimentResults{}
		return nil
	}
	numeric := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		var n float64
		if json.Unmarshal(v, &n) == nil {
			numeric[k] = v
		}
	}
	clean, err := json.Marshal(numeric)
	if err != nil {
		return fmt.Errorf("re-encode results: %w", err)
	}
	type plain ExperimentResults
	var out plain
	if err := json.Unmarshal(clean, &out); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}
	*r = ExperimentResults(out)
	return nil
}

// #endregion decode

// #region lookup
// ByFlow indexes records by flow number. A later record for the same flow
// replaces an earlier one.
func ByFlow(flows []FlowRecord) map[int]FlowRecord {
	out := make(map[int]FlowRecord, len(flows))
	for _, f := range flows {
		out[f.FlowNumber] = f
	}
	return out
}

// CommittedPrice returns the price from the stage-4 record, or 0.
func CommittedPrice(flows []FlowRecord) float64 {
	rec, ok := ByFlow(flows)[4]
	if !ok {
		return 0
	}
	if p, ok := rec.Data.(PriceData); ok {
		return p.CommittedPriceUSD
	}
	return 0
}

// #endregion lookup
