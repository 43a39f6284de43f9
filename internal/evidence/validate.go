package evidence

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// #region validator
// recordValidate checks struct tags on records crossing into the system.
// Scoring itself never validates: it is total over whatever it is given.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New()
}

// Validate checks a FlowRecord, ExperimentRecord, SignalRecord or
// DecisionRecord against its struct tags.
func Validate(record any) error {
	if err := recordValidate.Struct(record); err != nil {
		return fmt.Errorf("invalid %T: %w", record, err)
	}
	return nil
}

// ValidateBundle validates every record of b.
func ValidateBundle(b Bundle) error {
	for _, f := range b.Flows {
		if err := Validate(f); err != nil {
			return err
		}
		if f.Data != nil && f.Data.Flow() != f.FlowNumber {
			return fmt.Errorf("flow %d carries stage %d payload", f.FlowNumber, f.Data.Flow())
		}
	}
	for _, e := range b.Experiments {
		if err := Validate(e); err != nil {
			return err
		}
	}
	for _, s := range b.Signals {
		if err := Validate(s); err != nil {
			return err
		}
	}
	for _, d := range b.Decisions {
		if err := Validate(d); err != nil {
			return err
		}
	}
	return nil
}

// #endregion validator
