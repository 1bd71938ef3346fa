package learning

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/learning"
	"helios/internal/domain/trade"
	"helios/pkg/errors"
)

func newTestBoldness() (*BoldnessManager, *State) {
	state := NewState(50)
	m := NewBoldnessManager(state, DefaultBoldnessManagerConfig(), NewMovementFilter(0.1))
	return m, state
}

func TestBoldnessUpdate(t *testing.T) {
	t.Run("sustained elite accuracy compounds toward the cap", func(t *testing.T) {
		m, state := newTestBoldness()

		for i := 0; i < 30; i++ {
			require.NoError(t, m.Update(92, nil))
		}

		// Tier step caps at 5.0, then the accurate-streak growth lifts the
		// steady state to 5.5
		b := state.Boldness()
		assert.InDelta(t, tierEliteCap*streakGrowthFactor, b.GlobalBoldnessMultiplier, 1e-9)
		assert.Equal(t, 30, b.TotalForecastWindows)
		assert.Equal(t, 30, b.AccurateWindows)
		assert.Equal(t, 30, b.ConsecutiveAccurateForecasts)
		assert.Equal(t, 30, b.AchievedTargetStreak)
	})

	t.Run("poor accuracy from a fresh state shrinks to the floor", func(t *testing.T) {
		m, state := newTestBoldness()

		require.NoError(t, m.Update(20, nil))

		// 1.0 * 0.85 is lifted back to the shrink floor
		assert.InDelta(t, shrinkFloor, state.Multiplier(), 1e-9)
	})

	t.Run("hold band leaves the multiplier untouched", func(t *testing.T) {
		m, state := newTestBoldness()

		require.NoError(t, m.Update(60, nil))
		require.NoError(t, m.Update(55, nil))

		assert.InDelta(t, learning.BoldnessFloor, state.Multiplier(), 1e-9)
	})

	t.Run("inaccurate streak applies the extra contraction", func(t *testing.T) {
		m, state := newTestBoldness()

		// Grow first so the contraction is observable above the floor
		for i := 0; i < 20; i++ {
			require.NoError(t, m.Update(92, nil))
		}
		grown := state.Multiplier()

		for i := 0; i < 5; i++ {
			require.NoError(t, m.Update(10, nil))
		}
		assert.Less(t, state.Multiplier(), grown)
		assert.Equal(t, 5, state.Boldness().ConsecutiveInaccurate)
		assert.Equal(t, 0, state.Boldness().ConsecutiveAccurateForecasts)
	})

	t.Run("multiplier stays in band under random accuracy", func(t *testing.T) {
		m, state := newTestBoldness()
		rnd := rand.New(rand.NewSource(7))

		for i := 0; i < 200; i++ {
			require.NoError(t, m.Update(rnd.Float64()*100, nil))
			mult := state.Multiplier()
			assert.GreaterOrEqual(t, mult, learning.BoldnessFloor)
			assert.LessOrEqual(t, mult, learning.BoldnessCeil)
		}
	})

	t.Run("already-recorded trade is refused", func(t *testing.T) {
		m, state := newTestBoldness()

		tr := closedTrade(trade.OutcomeTPHit, 2.0)
		require.NoError(t, m.Update(90, tr))
		assert.True(t, tr.AccuracyRecorded)

		err := m.Update(90, tr)
		assert.ErrorIs(t, err, errors.ErrAlreadyProcessed)
		assert.Equal(t, 1, state.Boldness().TotalForecastWindows)
	})

	t.Run("flat trade contributes nothing", func(t *testing.T) {
		m, state := newTestBoldness()

		tr := closedTrade(trade.OutcomeTPHit, 0.01)
		tr.ActualMovementPercent = 0.03

		require.NoError(t, m.Update(90, tr))
		assert.True(t, tr.AccuracyRecorded)
		assert.Equal(t, 0, state.Boldness().TotalForecastWindows)
		assert.InDelta(t, learning.BoldnessFloor, state.Multiplier(), 1e-9)
	})
}

func TestConvergence(t *testing.T) {
	t.Run("few samples stay in learning", func(t *testing.T) {
		m, state := newTestBoldness()

		for i := 0; i < 9; i++ {
			require.NoError(t, m.Update(95, nil))
		}
		assert.Equal(t, learning.StateLearning, state.Boldness().ConvergenceState)
	})

	t.Run("configured sample floor gates convergence", func(t *testing.T) {
		state := NewState(50)
		cfg := DefaultBoldnessManagerConfig()
		cfg.MinSamples = 3
		m := NewBoldnessManager(state, cfg, NewMovementFilter(0.1))

		require.NoError(t, m.Update(95, nil))
		require.NoError(t, m.Update(95, nil))
		assert.Equal(t, learning.StateLearning, state.Boldness().ConvergenceState)

		require.NoError(t, m.Update(95, nil))
		assert.Equal(t, learning.StateConverged, state.Boldness().ConvergenceState)
	})

	t.Run("high lifetime and recent accuracy converge", func(t *testing.T) {
		m, state := newTestBoldness()

		for i := 0; i < 20; i++ {
			require.NoError(t, m.Update(95, nil))
		}
		assert.Equal(t, learning.StateConverged, state.Boldness().ConvergenceState)
	})

	t.Run("middling accuracy reaches converging only", func(t *testing.T) {
		m, state := newTestBoldness()

		// Recent accuracy 72 clears the converging bar but not the
		// converged one
		for i := 0; i < 25; i++ {
			require.NoError(t, m.Update(72, nil))
		}
		assert.Equal(t, learning.StateConverging, state.Boldness().ConvergenceState)
	})

	t.Run("poor accuracy drops back to learning", func(t *testing.T) {
		m, state := newTestBoldness()

		for i := 0; i < 12; i++ {
			require.NoError(t, m.Update(95, nil))
		}
		for i := 0; i < 15; i++ {
			require.NoError(t, m.Update(30, nil))
		}
		assert.Equal(t, learning.StateLearning, state.Boldness().ConvergenceState)
	})
}
