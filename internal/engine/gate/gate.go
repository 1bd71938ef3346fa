package gate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/internal/engine/predictor"
)

// Config holds the gate thresholds. Every threshold is configuration, not a
// literal inside the decision path.
type Config struct {
	MinConfidence         float64
	MinPredictedScore     float64
	MinSuccessProbability float64
	MinMarketScore        float64
	MinEntryTimingScore   float64
	MinRiskReward         float64
}

// DefaultConfig returns the balanced-mode thresholds
func DefaultConfig() Config {
	return Config{
		MinConfidence:         60,
		MinPredictedScore:     15,
		MinSuccessProbability: 55,
		MinMarketScore:        45,
		MinEntryTimingScore:   50,
		MinRiskReward:         1.5,
	}
}

// Rejection reasons, stable strings for events and metrics
const (
	ReasonWaitDirection     = "wait_direction"
	ReasonOpenTrade         = "open_trade"
	ReasonLowConfidence     = "low_confidence"
	ReasonLowPredictedScore = "low_predicted_score"
	ReasonLowProbability    = "low_probability"
	ReasonLowMarketScore    = "low_market_score"
	ReasonBadEntryTiming    = "bad_entry_timing"
	ReasonLowRiskReward     = "low_risk_reward"
)

// Entry timing increments
const (
	timingBase          = 50.0
	timingTrendDelta    = 25.0
	timingRSIDelta      = 15.0
	timingVolDelta      = 15.0
	timingMomentumDelta = 10.0
	timingVolumeDelta   = 10.0
)

// Input is one candidate evaluation arriving at the gate
type Input struct {
	Symbol           string
	Direction        trade.Direction
	EntryPrice       float64
	Confidence       float64
	ProfitLikelihood float64
	Snapshot         market.IndicatorSnapshot
	Condition        market.Condition
	Prediction       predictor.Prediction
	UsedFeatures     []string
	PatternID        string
	HasOpenTrade     bool
}

// Result is the terminal outcome of the gate state machine
type Result struct {
	Approved         bool
	RejectReason     string
	EntryTimingScore float64

	// Record is the trade created on approval, nil otherwise
	Record *trade.Record
}

// Gate applies the fixed battery of thresholds that turns a candidate into
// an approved trade or a rejection.
type Gate struct {
	cfg Config
}

// NewGate creates a decision gate
func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Decide runs the threshold battery. The first failed check short-circuits.
func (g *Gate) Decide(in Input) Result {
	timing := g.entryTimingScore(in)
	res := Result{EntryTimingScore: timing}

	if !in.Direction.Tradeable() {
		res.RejectReason = ReasonWaitDirection
		return res
	}
	if in.HasOpenTrade {
		res.RejectReason = ReasonOpenTrade
		return res
	}
	if in.Confidence < g.cfg.MinConfidence {
		res.RejectReason = ReasonLowConfidence
		return res
	}
	if in.Prediction.PredictedSuccessScore < g.cfg.MinPredictedScore {
		res.RejectReason = ReasonLowPredictedScore
		return res
	}
	if in.Prediction.SuccessProbability < g.cfg.MinSuccessProbability {
		res.RejectReason = ReasonLowProbability
		return res
	}
	if in.Condition.MarketScore < g.cfg.MinMarketScore {
		res.RejectReason = ReasonLowMarketScore
		return res
	}
	if timing < g.cfg.MinEntryTimingScore {
		res.RejectReason = ReasonBadEntryTiming
		return res
	}
	if in.Condition.RiskRewardRatio < g.cfg.MinRiskReward {
		res.RejectReason = ReasonLowRiskReward
		return res
	}

	res.Approved = true
	res.Record = g.buildRecord(in)
	return res
}

// buildRecord materializes the approved trade with TP/SL prices derived
// from the condition's optimal levels.
func (g *Gate) buildRecord(in Input) *trade.Record {
	entry := decimal.NewFromFloat(in.EntryPrice)
	tpFactor := in.Condition.OptimalTPPercent / 100
	slFactor := in.Condition.OptimalSLPercent / 100

	var tp, sl decimal.Decimal
	if in.Direction == trade.DirectionLong {
		tp = entry.Mul(decimal.NewFromFloat(1 + tpFactor))
		sl = entry.Mul(decimal.NewFromFloat(1 - slFactor))
	} else {
		tp = entry.Mul(decimal.NewFromFloat(1 - tpFactor))
		sl = entry.Mul(decimal.NewFromFloat(1 + slFactor))
	}

	return &trade.Record{
		ID:               uuid.New(),
		Symbol:           in.Symbol,
		Direction:        in.Direction,
		EntryPrice:       entry,
		TPPrice:          tp,
		SLPrice:          sl,
		Confidence:       in.Confidence,
		ProfitLikelihood: in.ProfitLikelihood,
		PredictedScore:   in.Prediction.PredictedSuccessScore,
		UsedFeatures:     in.UsedFeatures,
		PatternID:        in.PatternID,
		CreatedAt:        time.Now().UTC(),
	}
}

// entryTimingScore starts at the neutral base and adds fixed increments for
// trend strength, RSI extremity, volatility tier, momentum magnitude and
// volume-spike confirmation.
func (g *Gate) entryTimingScore(in Input) float64 {
	score := timingBase

	// Trend strength relative to the trade direction
	effStrength := in.Condition.TrendStrength
	if in.Direction == trade.DirectionShort {
		effStrength = 100 - effStrength
	}
	if effStrength >= 80 {
		score += timingTrendDelta
	} else if effStrength <= 20 {
		score -= timingTrendDelta
	}

	// RSI extremity: entering long into oversold is good timing, long into
	// overbought is bad; mirrored for shorts
	rsi := in.Snapshot.RSI
	switch in.Direction {
	case trade.DirectionLong:
		if rsi < 30 {
			score += timingRSIDelta
		} else if rsi > 70 {
			score -= timingRSIDelta
		}
	case trade.DirectionShort:
		if rsi > 70 {
			score += timingRSIDelta
		} else if rsi < 30 {
			score -= timingRSIDelta
		}
	}

	// Volatility tier
	switch in.Condition.Volatility {
	case market.VolLow, market.VolMedium:
		score += timingVolDelta
	case market.VolExtreme:
		score -= timingVolDelta
	}

	// Momentum magnitude, signed toward the trade direction
	if in.Condition.Momentum >= 50 || in.Condition.Momentum <= -50 {
		momentumLong := in.Condition.Momentum > 0
		if (in.Direction == trade.DirectionLong) == momentumLong {
			score += timingMomentumDelta
		} else {
			score -= timingMomentumDelta
		}
	}

	// Volume-spike confirmation
	if in.Snapshot.VolumeAvg > 0 {
		ratio := in.Snapshot.LastVolume / in.Snapshot.VolumeAvg
		if ratio > 1.5 {
			score += timingVolumeDelta
		} else if ratio < 0.5 {
			score -= timingVolumeDelta
		}
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
