package predictor

import (
	"math"

	"helios/internal/domain/learning"
	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/pkg/logger"
)

// Component weights of the combined score, and the realism scale that maps
// the weighted sum into the observed score range.
const (
	weightTimeInProfit    = 0.40
	weightProfitPotential = 0.30
	weightMarketAlignment = 0.20
	weightRisk            = 0.10
	realismScale          = 0.4
)

// Sigmoid parameters for success probability
const (
	sigmoidCenter = 10.0
	sigmoidSlope  = 5.0
)

// Prioritization thresholds
const (
	prioritizeMinScore       = 15.0
	prioritizeMinProbability = 60.0
)

// Prediction is the pre-trade success estimate
type Prediction struct {
	PredictedSuccessScore float64 `json:"predicted_success_score"` // [0,100]
	SuccessProbability    float64 `json:"success_probability"`     // [5,95]
	ConfidenceLevel       float64 `json:"confidence_level"`        // [10,95]

	TimeInProfitScore    float64 `json:"time_in_profit_score"`
	ProfitPotentialScore float64 `json:"profit_potential_score"`
	RiskScore            float64 `json:"risk_score"`
	MarketAlignmentScore float64 `json:"market_alignment_score"`

	ShouldPrioritize bool `json:"should_prioritize"`

	// Degraded marks the documented conservative default returned when the
	// computation failed internally
	Degraded bool `json:"degraded"`
}

// conservativeDefault is returned on any internal failure; callers always
// receive a usable result.
func conservativeDefault() Prediction {
	return Prediction{
		PredictedSuccessScore: 5,
		SuccessProbability:    25,
		ConfidenceLevel:       30,
		ShouldPrioritize:      false,
		Degraded:              true,
	}
}

// Predictor estimates the probability and magnitude of a favorable outcome
// before a trade is opened.
type Predictor struct {
	log *logger.Logger
}

// NewPredictor creates a success score predictor
func NewPredictor() *Predictor {
	return &Predictor{log: logger.Get().With("component", "predictor")}
}

// Predict combines four independently bounded components into the final
// success estimate. It never fails: invalid inputs or an internal panic
// yield the conservative default.
func (p *Predictor) Predict(
	symbol string,
	direction trade.Direction,
	cond market.Condition,
	confidence float64,
	profitLikelihood float64,
	history learning.SymbolHistory,
) (pred Prediction) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("prediction failed for %s: %v", symbol, r)
			pred = conservativeDefault()
		}
	}()

	if !finite(confidence) || !finite(profitLikelihood) || !finite(cond.MarketScore) {
		return conservativeDefault()
	}

	tip := p.timeInProfitScore(direction, cond, history)
	pp := p.profitPotentialScore(cond, history)
	risk := p.riskScore(cond, confidence)
	align := p.marketAlignmentScore(direction, cond)

	combined := weightTimeInProfit*tip +
		weightProfitPotential*pp +
		weightMarketAlignment*align +
		weightRisk*risk
	score := clamp(combined*realismScale, 0, 100)

	probability := clamp(100/(1+math.Exp(-(score-sigmoidCenter)/sigmoidSlope)), 5, 95)

	confLevel := 50 + 0.3*(cond.MarketScore-50)
	if history.TradeCount >= 5 {
		confLevel += 10
	}
	confLevel = clamp(confLevel, 10, 95)

	return Prediction{
		PredictedSuccessScore: score,
		SuccessProbability:    probability,
		ConfidenceLevel:       confLevel,
		TimeInProfitScore:     tip,
		ProfitPotentialScore:  pp,
		RiskScore:             risk,
		MarketAlignmentScore:  align,
		ShouldPrioritize:      score >= prioritizeMinScore && probability >= prioritizeMinProbability,
	}
}

// timeInProfitScore rewards trend alignment, calm volatility, a strong
// market score and a good historical time-in-profit record.
func (p *Predictor) timeInProfitScore(direction trade.Direction, cond market.Condition, history learning.SymbolHistory) float64 {
	score := 50.0

	switch alignment(direction, cond.Trend) {
	case aligned:
		score += 25
	case opposed:
		score -= 20
	}

	if cond.Volatility == market.VolLow {
		score += 10
	}
	if cond.MarketScore > 70 {
		score += 15
	}
	if history.TradeCount > 0 && history.AvgTimeInProfitRatio > 0.5 {
		score += 10
	}

	return clamp(score, 0, 100)
}

// profitPotentialScore rewards high risk/reward, a wide optimal TP and a
// positive historical average profit.
func (p *Predictor) profitPotentialScore(cond market.Condition, history learning.SymbolHistory) float64 {
	score := 50.0

	if cond.RiskRewardRatio > 2.0 {
		score += 15
	}
	if cond.OptimalTPPercent > 2.0 {
		score += 10
	}
	if history.TradeCount > 0 && history.AvgProfitPercent > 0 {
		score += 12
	}

	return clamp(score, 0, 100)
}

// riskScore starts at 70 and adjusts for confidence, volatility tier and
// market score.
func (p *Predictor) riskScore(cond market.Condition, confidence float64) float64 {
	score := 70.0

	if confidence >= 70 {
		score += 10
	} else if confidence < 50 {
		score -= 15
	}

	switch cond.Volatility {
	case market.VolLow:
		score += 10
	case market.VolHigh:
		score -= 10
	case market.VolExtreme:
		score -= 25
	}

	if cond.MarketScore > 60 {
		score += 5
	} else if cond.MarketScore < 40 {
		score -= 10
	}

	return clamp(score, 0, 100)
}

// marketAlignmentScore rewards trend/direction alignment and oversold or
// overbought momentum consistent with a mean-reversion entry.
func (p *Predictor) marketAlignmentScore(direction trade.Direction, cond market.Condition) float64 {
	score := 50.0

	switch alignment(direction, cond.Trend) {
	case aligned:
		score += 30
	case opposed:
		score -= 25
	}

	// Momentum below -30 roughly corresponds to an oversold RSI; above +30
	// to overbought. Entering against the extreme is a mean-reversion setup.
	if (direction == trade.DirectionLong && cond.Momentum <= -30) ||
		(direction == trade.DirectionShort && cond.Momentum >= 30) {
		score += 15
	}

	return clamp(score, 0, 100)
}

type alignmentResult int

const (
	neutral alignmentResult = iota
	aligned
	opposed
)

func alignment(direction trade.Direction, trend market.TrendType) alignmentResult {
	switch {
	case direction == trade.DirectionLong && trend.IsBullish():
		return aligned
	case direction == trade.DirectionShort && trend.IsBearish():
		return aligned
	case direction == trade.DirectionLong && trend.IsBearish():
		return opposed
	case direction == trade.DirectionShort && trend.IsBullish():
		return opposed
	default:
		return neutral
	}
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

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
