package learning

import (
	"helios/internal/domain/trade"
)

// DefaultMovementThresholdPct excludes trades whose realized price range is
// below 0.1% from every learning update.
const DefaultMovementThresholdPct = 0.1

// MovementFilter is the single shared predicate deciding whether a trade
// moved enough to learn from. Both the weight learner and the boldness
// manager consult the same instance so the two call sites cannot drift.
type MovementFilter struct {
	ThresholdPct float64
}

// NewMovementFilter creates a movement filter
func NewMovementFilter(thresholdPct float64) MovementFilter {
	if thresholdPct <= 0 {
		thresholdPct = DefaultMovementThresholdPct
	}
	return MovementFilter{ThresholdPct: thresholdPct}
}

// Allows reports whether the trade's realized movement clears the learning
// threshold
func (f MovementFilter) Allows(t *trade.Record) bool {
	if t == nil {
		return false
	}
	return t.ActualMovementPercent >= f.ThresholdPct
}
