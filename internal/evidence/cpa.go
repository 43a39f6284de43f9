package evidence

import (
	"encoding/json"
	"math"
	"strconv"
)

// #region cpa
// CPA is a cost-per-acquisition that is either Defined(value) or Undefined
// (no orders yet). Undefined never compares or formats as a number.
type CPA struct {
	value   float64
	defined bool
}

// Defined wraps a finite CPA value. Non-finite input yields Undefined.
func Defined(v float64) CPA {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Undefined()
	}
	return CPA{value: v, defined: true}
}

// Undefined is the CPA of an experiment with no orders.
func Undefined() CPA {
	return CPA{}
}

// Value returns the CPA and whether it is defined.
func (c CPA) Value() (float64, bool) {
	return c.value, c.defined
}

// IsDefined reports whether c carries a value.
func (c CPA) IsDefined() bool {
	return c.defined
}

// AtMost reports whether c is defined and no greater than limit.
func (c CPA) AtMost(limit float64) bool {
	return c.defined && c.value <= limit
}

// Equal lets go-cmp compare CPAs without reaching into unexported fields.
func (c CPA) Equal(o CPA) bool {
	return c.defined == o.defined && c.value == o.value
}

func (c CPA) String() string {
	if !c.defined {
		return "∞"
	}
	return strconv.FormatFloat(c.value, 'f', 2, 64)
}

// MarshalJSON encodes Undefined as null.
func (c CPA) MarshalJSON() ([]byte, error) {
	if !c.defined {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON decodes null as Undefined.
func (c *CPA) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Defined(v)
	return nil
}

// #endregion cpa
