package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a candidate or open trade
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	// DirectionWait means the forecast is inside the dead band; the gate
	// rejects such candidates immediately
	DirectionWait Direction = "WAIT"
)

// String returns string representation
func (d Direction) String() string {
	return string(d)
}

// Tradeable reports whether the direction can open a position
func (d Direction) Tradeable() bool {
	return d == DirectionLong || d == DirectionShort
}

// Outcome is the terminal state of a closed trade
type Outcome string

const (
	OutcomeTPHit         Outcome = "TP_HIT"
	OutcomeSLHit         Outcome = "SL_HIT"
	OutcomePulloutProfit Outcome = "PULLOUT_PROFIT"
	OutcomeNoProfit      Outcome = "NO_PROFIT"
	// OutcomeExpired is the legacy timeout outcome, rewarded proportionally
	OutcomeExpired Outcome = "EXPIRED"
)

// String returns string representation
func (o Outcome) String() string {
	return string(o)
}

// Valid checks if the outcome is a known terminal state
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeTPHit, OutcomeSLHit, OutcomePulloutProfit, OutcomeNoProfit, OutcomeExpired:
		return true
	}
	return false
}

// Record is a trade approved by the decision gate. It is created on
// approval, mutated by the outcome monitor while open, finalized exactly
// once, then consumed once by the scorer and the weight learner.
// Invariant: at most one open Record per symbol at a time.
type Record struct {
	ID     uuid.UUID `db:"id"`
	Symbol string    `db:"symbol"`

	Direction  Direction       `db:"direction"`
	EntryPrice decimal.Decimal `db:"entry_price"`
	TPPrice    decimal.Decimal `db:"tp_price"`
	SLPrice    decimal.Decimal `db:"sl_price"`

	Confidence       float64 `db:"confidence"`        // 0-100
	ProfitLikelihood float64 `db:"profit_likelihood"` // 0-100
	PredictedScore   float64 `db:"predicted_score"`   // 0-100

	// UsedFeatures names the indicator features that argued for this trade;
	// only these receive weight updates when the trade closes
	UsedFeatures []string `db:"-"`
	// PatternID identifies the correlation pattern the entry matched
	PatternID string `db:"pattern_id"`

	CreatedAt time.Time  `db:"created_at"`
	ClosedAt  *time.Time `db:"closed_at"`

	// Set while open / at closure by the external outcome monitor
	Outcome               Outcome `db:"outcome"`
	ProfitLossPercent     float64 `db:"profit_loss_percent"`
	HighestProfit         float64 `db:"highest_profit"`
	LowestLoss            float64 `db:"lowest_loss"`
	MaxFavorableExcursion float64 `db:"max_favorable_excursion"`
	MaxDrawdown           float64 `db:"max_drawdown"`
	SuccessScore          float64 `db:"success_score"`
	TimeInProfitRatio     float64 `db:"time_in_profit_ratio"`
	ActualMovementPercent float64 `db:"actual_movement_percent"`

	ExcludedFromLearning bool `db:"excluded_from_learning"`
	// LearningProcessed guards against double-applying the reward
	LearningProcessed bool `db:"learning_processed"`
	// AccuracyRecorded guards against double-counting the trade's forecast
	// accuracy in the boldness metrics
	AccuracyRecorded bool `db:"accuracy_recorded"`
}

// IsClosed reports whether the trade reached a terminal outcome
func (r *Record) IsClosed() bool {
	return r.ClosedAt != nil && r.Outcome.Valid()
}

// EntryPriceF returns the entry price as float64 for path computations
func (r *Record) EntryPriceF() float64 {
	return r.EntryPrice.InexactFloat64()
}

// TPDistancePercent is the absolute percent distance from entry to take profit
func (r *Record) TPDistancePercent() float64 {
	return priceDistancePercent(r.EntryPrice, r.TPPrice)
}

// SLDistancePercent is the absolute percent distance from entry to stop loss
func (r *Record) SLDistancePercent() float64 {
	return priceDistancePercent(r.EntryPrice, r.SLPrice)
}

func priceDistancePercent(entry, target decimal.Decimal) float64 {
	if entry.IsZero() {
		return 0
	}
	return target.Sub(entry).Div(entry).Mul(decimal.NewFromInt(100)).Abs().InexactFloat64()
}
