package logging

import (
	"time"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
)

// #region score-entry
// ScoreEntry is a single row in the score_log table. InputHash identifies
// the exact bundle that produced Result, so two rows with the same hash
// must carry identical results.
type ScoreEntry struct {
	ID        int64
	ProductID string
	InputHash string
	Result    scoring.Result
	CreatedAt time.Time
}

// #endregion score-entry
