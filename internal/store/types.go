package store

import (
	"errors"
	"time"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region errors
var (
	// ErrNotFound is returned when a product or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLockedFlow is returned when a save would change the data of a locked flow.
	ErrLockedFlow = errors.New("flow is locked")
	// ErrExperimentOwner is returned when an experiment id is already used by
	// a different product.
	ErrExperimentOwner = errors.New("experiment owned by another product")
)

// #endregion errors

// #region product
// Product carries the scalar scoring context kept alongside a product's
// records. A zero CommittedPriceUSD defers to the locked price stage.
type Product struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	CommittedPriceUSD   float64                    `json:"committed_price_usd"`
	SignalQualityScore  float64                    `json:"signal_quality_score"`
	AcceleratingSignals bool                       `json:"accelerating_signals"`
	Consistency         *evidence.ConsistencyInput `json:"consistency,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
}

// #endregion product
