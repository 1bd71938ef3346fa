package learning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/learning"
	"helios/internal/domain/trade"
	"helios/pkg/errors"
)

// closedTrade builds a finalized trade: entry 100, TP 102, SL 99, realized
// movement well above the learning threshold
func closedTrade(outcome trade.Outcome, pnl float64) *trade.Record {
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
		ProfitLossPercent:     pnl,
		TimeInProfitRatio:     0.6,
		ActualMovementPercent: 1.5,
	}
}

func newTestLearner() (*Learner, *State) {
	state := NewState(50)
	l := NewLearner(state, DefaultLearnerConfig(), NewMovementFilter(0.1))
	return l, state
}

func TestReward(t *testing.T) {
	l, _ := newTestLearner()

	t.Run("terminal outcomes map to unit rewards", func(t *testing.T) {
		cases := []struct {
			outcome trade.Outcome
			want    float64
		}{
			{trade.OutcomeTPHit, 1.0},
			{trade.OutcomePulloutProfit, 1.0},
			{trade.OutcomeSLHit, -1.0},
			{trade.OutcomeNoProfit, -1.0},
		}
		for _, tc := range cases {
			t.Run(tc.outcome.String(), func(t *testing.T) {
				assert.InDelta(t, tc.want, l.Reward(closedTrade(tc.outcome, 0)), 1e-9)
			})
		}
	})

	t.Run("expired outcome scales with PnL, capped at half", func(t *testing.T) {
		assert.InDelta(t, 0.4, l.Reward(closedTrade(trade.OutcomeExpired, 0.8)), 1e-9)
		assert.InDelta(t, 0.5, l.Reward(closedTrade(trade.OutcomeExpired, 3.0)), 1e-9)
		assert.InDelta(t, -0.5, l.Reward(closedTrade(trade.OutcomeExpired, -3.0)), 1e-9)
	})

	t.Run("favorable excursion adds a bonus against TP distance", func(t *testing.T) {
		tr := closedTrade(trade.OutcomeTPHit, 2.0)
		tr.MaxFavorableExcursion = 2.0 // 0.2 * (2 / 2) = +0.2
		assert.InDelta(t, 1.2, l.Reward(tr), 1e-9)
	})

	t.Run("drawdown subtracts against SL distance", func(t *testing.T) {
		tr := closedTrade(trade.OutcomeTPHit, 2.0)
		tr.MaxDrawdown = -0.5 // 0.2 * (0.5 / 1) = -0.1
		assert.InDelta(t, 0.9, l.Reward(tr), 1e-9)
	})

	t.Run("reward is clamped to plus minus 1.4", func(t *testing.T) {
		win := closedTrade(trade.OutcomeTPHit, 2.0)
		win.MaxFavorableExcursion = 20
		assert.InDelta(t, 1.4, l.Reward(win), 1e-9)

		loss := closedTrade(trade.OutcomeSLHit, -1.0)
		loss.MaxDrawdown = -20
		assert.InDelta(t, -1.4, l.Reward(loss), 1e-9)
	})

	t.Run("unknown outcome yields zero", func(t *testing.T) {
		tr := closedTrade(trade.OutcomeTPHit, 0)
		tr.Outcome = "SOMETHING_ELSE"
		assert.Zero(t, l.Reward(tr))
	})
}

func TestApply(t *testing.T) {
	t.Run("first update on a fresh feature uses full decay", func(t *testing.T) {
		l, state := newTestLearner()

		require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.0))

		fw := state.FeatureWeight("rsi")
		assert.Equal(t, 1, fw.UsageCount)
		assert.InDelta(t, 2.0, fw.Weight, 1e-9) // 1.0 + 1.0 * 1/sqrt(1)
	})

	t.Run("decay shrinks with usage count", func(t *testing.T) {
		l, state := newTestLearner()

		require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.0))
		require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.0))

		fw := state.FeatureWeight("rsi")
		assert.Equal(t, 2, fw.UsageCount)
		assert.InDelta(t, 2.7071, fw.Weight, 1e-3) // 2.0 + 1/sqrt(2)
	})

	t.Run("weights never escape their clamp band", func(t *testing.T) {
		l, state := newTestLearner()

		for i := 0; i < 200; i++ {
			require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.4))
		}
		assert.LessOrEqual(t, state.FeatureWeight("rsi").Weight, learning.FeatureWeightMax)

		for i := 0; i < 400; i++ {
			require.NoError(t, l.Apply(closedTrade(trade.OutcomeSLHit, -1.0), -1.4))
		}
		assert.GreaterOrEqual(t, state.FeatureWeight("rsi").Weight, learning.FeatureWeightMin)
	})

	t.Run("pattern weights never escape their clamp band", func(t *testing.T) {
		l, state := newTestLearner()

		for i := 0; i < 100; i++ {
			require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.4))
		}
		p := state.Patterns("BTC-USDT")["bullish_low_long"]
		assert.LessOrEqual(t, p.Weight, learning.PatternWeightMax)

		for i := 0; i < 200; i++ {
			require.NoError(t, l.Apply(closedTrade(trade.OutcomeSLHit, -1.0), -1.4))
		}
		p = state.Patterns("BTC-USDT")["bullish_low_long"]
		assert.GreaterOrEqual(t, p.Weight, learning.PatternWeightMin)
	})

	t.Run("zero reward still counts usage", func(t *testing.T) {
		l, state := newTestLearner()

		require.NoError(t, l.Apply(closedTrade(trade.OutcomeExpired, 0), 0))

		fw := state.FeatureWeight("trend")
		assert.Equal(t, 1, fw.UsageCount)
		assert.InDelta(t, 1.0, fw.Weight, 1e-9)
	})

	t.Run("open trade is refused", func(t *testing.T) {
		l, _ := newTestLearner()

		tr := closedTrade(trade.OutcomeTPHit, 2.0)
		tr.ClosedAt = nil
		assert.ErrorIs(t, l.Apply(tr, 1.0), errors.ErrTradeNotClosed)
		assert.ErrorIs(t, l.Apply(nil, 1.0), errors.ErrTradeNotClosed)
	})

	t.Run("second apply of the same trade is refused", func(t *testing.T) {
		l, state := newTestLearner()

		tr := closedTrade(trade.OutcomeTPHit, 2.0)
		require.NoError(t, l.Apply(tr, 1.0))
		assert.ErrorIs(t, l.Apply(tr, 1.0), errors.ErrAlreadyProcessed)
		assert.Equal(t, 1, state.FeatureWeight("rsi").UsageCount)
	})

	t.Run("flat trade is excluded before any weight moves", func(t *testing.T) {
		l, state := newTestLearner()

		tr := closedTrade(trade.OutcomeTPHit, 0.02)
		tr.ActualMovementPercent = 0.05

		require.NoError(t, l.Apply(tr, 1.0))
		assert.True(t, tr.ExcludedFromLearning)
		assert.True(t, tr.LearningProcessed)

		assert.Equal(t, 0, state.FeatureWeight("rsi").UsageCount)
		assert.InDelta(t, 1.0, state.FeatureWeight("rsi").Weight, 1e-9)
		assert.Empty(t, state.Patterns("BTC-USDT"))
		assert.Equal(t, 0, state.History("BTC-USDT").TradeCount)
	})

	t.Run("pattern correlation tracks wins and losses", func(t *testing.T) {
		l, state := newTestLearner()

		require.NoError(t, l.Apply(closedTrade(trade.OutcomeTPHit, 2.0), 1.0))

		p := state.Patterns("BTC-USDT")["bullish_low_long"]
		assert.InDelta(t, 1.1, p.Weight, 1e-9)
		assert.Equal(t, 1, p.TotalCount)
		assert.Equal(t, 1, p.SuccessCount)
		assert.InDelta(t, 1.0, p.SuccessRate, 1e-9)
		assert.False(t, p.LastUsedAt.IsZero())

		require.NoError(t, l.Apply(closedTrade(trade.OutcomeSLHit, -1.0), -1.0))

		p = state.Patterns("BTC-USDT")["bullish_low_long"]
		assert.InDelta(t, 1.0, p.Weight, 1e-9)
		assert.Equal(t, 2, p.TotalCount)
		assert.InDelta(t, 0.5, p.SuccessRate, 1e-9)
	})

	t.Run("symbol history keeps running averages", func(t *testing.T) {
		l, state := newTestLearner()

		win := closedTrade(trade.OutcomeTPHit, 2.0)
		win.TimeInProfitRatio = 0.8
		loss := closedTrade(trade.OutcomeSLHit, -1.0)
		loss.TimeInProfitRatio = 0.2

		require.NoError(t, l.Apply(win, 1.0))
		require.NoError(t, l.Apply(loss, -1.0))

		h := state.History("BTC-USDT")
		assert.Equal(t, 2, h.TradeCount)
		assert.Equal(t, 1, h.WinCount)
		assert.InDelta(t, 0.5, h.AvgProfitPercent, 1e-9)
		assert.InDelta(t, 0.5, h.AvgTimeInProfitRatio, 1e-9)
	})
}
