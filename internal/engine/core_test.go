package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/pkg/errors"
)

// trendingWindow builds n one-minute candles in a steady uptrend
func trendingWindow(n int) market.Window {
	w := make(market.Window, n)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range w {
		open := price
		price += 0.15
		w[i] = market.OHLCV{
			Symbol:    "BTC-USDT",
			Timeframe: "1m",
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
			Open:      open,
			High:      price + 0.05,
			Low:       open - 0.05,
			Close:     price,
			Volume:    120,
			IsClosed:  true,
		}
	}
	return w
}

func newTestCore() *Core {
	return NewCore(DefaultConfig(), rand.New(rand.NewSource(1)))
}

func finalizedTrade(outcome trade.Outcome) *trade.Record {
	closedAt := time.Now().UTC()
	return &trade.Record{
		ID:                    uuid.New(),
		Symbol:                "BTC-USDT",
		Direction:             trade.DirectionLong,
		EntryPrice:            decimal.NewFromInt(100),
		TPPrice:               decimal.NewFromInt(102),
		SLPrice:               decimal.NewFromInt(99),
		UsedFeatures:          []string{"rsi", "trend"},
		PatternID:             "bullish_low_long",
		CreatedAt:             closedAt.Add(-time.Hour),
		ClosedAt:              &closedAt,
		Outcome:               outcome,
		ProfitLossPercent:     2.0,
		ActualMovementPercent: 2.0,
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("full pipeline on a trending window", func(t *testing.T) {
		c := newTestCore()

		ev, err := c.Evaluate(context.Background(), "BTC-USDT", trendingWindow(200), false)
		require.NoError(t, err)

		assert.Equal(t, "BTC-USDT", ev.Symbol)
		assert.InDelta(t, 130.0, ev.Snapshot.Price, 0.01)
		assert.False(t, ev.Snapshot.Degraded)
		assert.GreaterOrEqual(t, ev.Condition.TrendStrength, 0.0)
		assert.LessOrEqual(t, ev.Condition.TrendStrength, 100.0)
		assert.GreaterOrEqual(t, ev.Prediction.PredictedSuccessScore, 0.0)
		assert.LessOrEqual(t, ev.Prediction.PredictedSuccessScore, 100.0)
		assert.False(t, ev.EvaluatedAt.IsZero())

		if ev.Gate.Approved {
			require.NotNil(t, ev.Gate.Record)
			assert.Equal(t, ev.Forecast.Direction, ev.Gate.Record.Direction)
			assert.NotEmpty(t, ev.Gate.Record.UsedFeatures)
			assert.NotEmpty(t, ev.Gate.Record.PatternID)
		} else {
			assert.NotEmpty(t, ev.Gate.RejectReason)
			assert.Nil(t, ev.Gate.Record)
		}
	})

	t.Run("empty window is insufficient data", func(t *testing.T) {
		c := newTestCore()

		_, err := c.Evaluate(context.Background(), "BTC-USDT", nil, false)
		assert.ErrorIs(t, err, errors.ErrInsufficientData)
	})

	t.Run("cancelled context aborts before any work", func(t *testing.T) {
		c := newTestCore()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Evaluate(ctx, "BTC-USDT", trendingWindow(200), false)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("open position forces a rejection", func(t *testing.T) {
		c := newTestCore()

		ev, err := c.Evaluate(context.Background(), "BTC-USDT", trendingWindow(200), true)
		require.NoError(t, err)
		assert.False(t, ev.Gate.Approved)
	})
}

func TestScoreCompletedTrade(t *testing.T) {
	t.Run("stamps realized metrics onto the record", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeTPHit)
		path := []float64{101, 102, 100.2, 103, 99.5}

		score, err := c.ScoreCompletedTrade(tr, path)
		require.NoError(t, err)

		assert.InDelta(t, score.FinalScore, tr.SuccessScore, 1e-9)
		assert.InDelta(t, 3.0, tr.MaxFavorableExcursion, 1e-9)
		assert.InDelta(t, -0.5, tr.MaxDrawdown, 1e-9)
		assert.InDelta(t, 3.0, tr.ActualMovementPercent, 1e-9)
		assert.InDelta(t, 3.0, tr.HighestProfit, 1e-9)
		assert.InDelta(t, -0.5, tr.LowestLoss, 1e-9)
	})

	t.Run("open trade is refused", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeTPHit)
		tr.ClosedAt = nil
		_, err := c.ScoreCompletedTrade(tr, []float64{101})
		assert.ErrorIs(t, err, errors.ErrTradeNotClosed)
	})

	t.Run("winner with no adverse excursion carries zero drawdown", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeTPHit)
		path := []float64{102, 102, 102, 102} // +2% throughout, never below entry

		_, err := c.ScoreCompletedTrade(tr, path)
		require.NoError(t, err)

		assert.InDelta(t, 2.0, tr.MaxFavorableExcursion, 1e-9)
		assert.Zero(t, tr.MaxDrawdown)

		// Full MFE bonus against the 2% TP distance, no drawdown penalty
		assert.InDelta(t, 1.2, c.Reward(tr), 1e-9)
	})

	t.Run("loser that never sees profit carries zero favorable excursion", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeSLHit)
		path := []float64{99, 98.5, 98} // always below entry

		_, err := c.ScoreCompletedTrade(tr, path)
		require.NoError(t, err)

		assert.Zero(t, tr.MaxFavorableExcursion)
		assert.InDelta(t, -2.0, tr.MaxDrawdown, 1e-9)

		// Base -1.0 with the full drawdown penalty, clamped
		assert.InDelta(t, -1.4, c.Reward(tr), 1e-9)
	})

	t.Run("drawdown dominates movement when deeper than the peak", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeSLHit)
		_, err := c.ScoreCompletedTrade(tr, []float64{100.5, 99, 97})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, tr.ActualMovementPercent, 1e-9)
	})
}

func TestLearningLoop(t *testing.T) {
	t.Run("applied reward moves the exposed feature weights", func(t *testing.T) {
		c := newTestCore()

		tr := finalizedTrade(trade.OutcomeTPHit)
		reward := c.Reward(tr)
		assert.Greater(t, reward, 0.0)

		require.NoError(t, c.ApplyLearning(tr, reward))

		weights := c.FeatureWeights()
		require.Contains(t, weights, "rsi")
		assert.Greater(t, weights["rsi"].Weight, 1.0)
		assert.Equal(t, 1, weights["rsi"].UsageCount)

		pats := c.CorrelationPatterns("BTC-USDT")
		require.Contains(t, pats, "bullish_low_long")
		assert.Equal(t, 1, pats["bullish_low_long"].TotalCount)
	})

	t.Run("accuracy samples drive the boldness multiplier", func(t *testing.T) {
		c := newTestCore()
		require.InDelta(t, 1.0, c.BoldnessMultiplier(), 1e-9)

		for i := 0; i < 10; i++ {
			require.NoError(t, c.RecordForecastAccuracy(92, nil))
		}
		assert.Greater(t, c.BoldnessMultiplier(), 1.0)
		assert.Equal(t, 10, c.BoldnessMetrics().TotalForecastWindows)
	})

	t.Run("snapshot restore survives a process restart", func(t *testing.T) {
		first := newTestCore()
		require.NoError(t, first.ApplyLearning(finalizedTrade(trade.OutcomeTPHit), 1.0))
		require.NoError(t, first.RecordForecastAccuracy(90, nil))
		snap := first.StateSnapshot()

		second := newTestCore()
		second.RestoreState(snap)

		assert.Equal(t, first.FeatureWeights(), second.FeatureWeights())
		assert.InDelta(t, first.BoldnessMultiplier(), second.BoldnessMultiplier(), 1e-9)
	})
}

func TestUsedFeatures(t *testing.T) {
	t.Run("degraded snapshot keeps only structural features", func(t *testing.T) {
		snap := market.IndicatorSnapshot{Degraded: true}
		got := usedFeatures(snap)
		assert.ElementsMatch(t, []string{"trend", "momentum", "volatility"}, got)
	})

	t.Run("full snapshot includes the oscillators and volume", func(t *testing.T) {
		snap := market.IndicatorSnapshot{VolumeAvg: 100}
		got := usedFeatures(snap)
		assert.Contains(t, got, "rsi")
		assert.Contains(t, got, "macd")
		assert.Contains(t, got, "volume")
		assert.Len(t, got, 9)
	})
}

func TestPatternID(t *testing.T) {
	cond := market.Condition{Trend: market.TrendBullish, Volatility: market.VolLow}
	assert.Equal(t, "bullish_low_long", patternID(cond, trade.DirectionLong))
}
