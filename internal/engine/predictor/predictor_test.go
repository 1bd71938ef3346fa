package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/learning"
	"helios/internal/domain/market"
	"helios/internal/domain/trade"
)

func favorableCondition() market.Condition {
	return market.Condition{
		Symbol:           "BTC-USDT",
		Trend:            market.TrendStrongBullish,
		TrendStrength:    90,
		Volatility:       market.VolLow,
		Momentum:         40,
		MarketScore:      80,
		RiskRewardRatio:  2.5,
		OptimalTPPercent: 3,
		OptimalSLPercent: 1.2,
	}
}

func TestPredict(t *testing.T) {
	p := NewPredictor()

	t.Run("invalid input yields conservative default", func(t *testing.T) {
		pred := p.Predict("BTC-USDT", trade.DirectionLong, favorableCondition(),
			math.NaN(), 60, learning.SymbolHistory{})

		assert.True(t, pred.Degraded)
		assert.Equal(t, 5.0, pred.PredictedSuccessScore)
		assert.Equal(t, 25.0, pred.SuccessProbability)
		assert.Equal(t, 30.0, pred.ConfidenceLevel)
		assert.False(t, pred.ShouldPrioritize)
	})

	t.Run("outputs stay within documented bounds", func(t *testing.T) {
		pred := p.Predict("BTC-USDT", trade.DirectionLong, favorableCondition(),
			75, 70, learning.SymbolHistory{TradeCount: 10, WinCount: 7, AvgProfitPercent: 1.2, AvgTimeInProfitRatio: 0.6})

		require.False(t, pred.Degraded)
		assert.GreaterOrEqual(t, pred.PredictedSuccessScore, 0.0)
		assert.LessOrEqual(t, pred.PredictedSuccessScore, 100.0)
		assert.GreaterOrEqual(t, pred.SuccessProbability, 5.0)
		assert.LessOrEqual(t, pred.SuccessProbability, 95.0)
		assert.GreaterOrEqual(t, pred.ConfidenceLevel, 10.0)
		assert.LessOrEqual(t, pred.ConfidenceLevel, 95.0)
	})

	t.Run("aligned entry outscores opposed entry", func(t *testing.T) {
		cond := favorableCondition()
		history := learning.SymbolHistory{}

		long := p.Predict("BTC-USDT", trade.DirectionLong, cond, 75, 70, history)
		short := p.Predict("BTC-USDT", trade.DirectionShort, cond, 75, 70, history)

		assert.Greater(t, long.PredictedSuccessScore, short.PredictedSuccessScore)
	})

	t.Run("extreme volatility drags the risk component", func(t *testing.T) {
		calm := favorableCondition()
		wild := favorableCondition()
		wild.Volatility = market.VolExtreme

		calmPred := p.Predict("BTC-USDT", trade.DirectionLong, calm, 75, 70, learning.SymbolHistory{})
		wildPred := p.Predict("BTC-USDT", trade.DirectionLong, wild, 75, 70, learning.SymbolHistory{})

		assert.Greater(t, calmPred.RiskScore, wildPred.RiskScore)
	})

	t.Run("good symbol history lifts the estimate", func(t *testing.T) {
		cond := favorableCondition()
		fresh := p.Predict("BTC-USDT", trade.DirectionLong, cond, 75, 70, learning.SymbolHistory{})
		seasoned := p.Predict("BTC-USDT", trade.DirectionLong, cond, 75, 70, learning.SymbolHistory{
			TradeCount:           20,
			WinCount:             14,
			AvgProfitPercent:     1.5,
			AvgTimeInProfitRatio: 0.7,
		})

		assert.Greater(t, seasoned.PredictedSuccessScore, fresh.PredictedSuccessScore)
		assert.Greater(t, seasoned.ConfidenceLevel, fresh.ConfidenceLevel)
	})
}

func TestSigmoidProbability(t *testing.T) {
	p := NewPredictor()

	// Score exactly at the sigmoid center maps to 50% before clamping
	cond := favorableCondition()
	pred := p.Predict("BTC-USDT", trade.DirectionLong, cond, 75, 70, learning.SymbolHistory{})

	// Monotonicity: probability moves with the score through the sigmoid
	expected := 100 / (1 + math.Exp(-(pred.PredictedSuccessScore-sigmoidCenter)/sigmoidSlope))
	assert.InDelta(t, clamp(expected, 5, 95), pred.SuccessProbability, 1e-9)
}

func TestAlignment(t *testing.T) {
	assert.Equal(t, aligned, alignment(trade.DirectionLong, market.TrendBullish))
	assert.Equal(t, aligned, alignment(trade.DirectionShort, market.TrendStrongBearish))
	assert.Equal(t, opposed, alignment(trade.DirectionLong, market.TrendBearish))
	assert.Equal(t, opposed, alignment(trade.DirectionShort, market.TrendStrongBullish))
	assert.Equal(t, neutral, alignment(trade.DirectionLong, market.TrendNeutral))
}
