package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/trade"
)

func noiselessConfig() Config {
	cfg := DefaultConfig()
	cfg.NoiseAmplitude = 0
	return cfg
}

func steadyUptrend(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.2
	}
	return closes
}

func TestBlend(t *testing.T) {
	t.Run("flat tape stays in the dead band", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 100
		}
		f := b.Blend("BTC-USDT", closes, 1.0)

		assert.Equal(t, trade.DirectionWait, f.Direction)
		assert.InDelta(t, 0, f.MovePercent, 1e-9)
		assert.InDelta(t, 100, f.PredictedPrice, 1e-9)
		assert.Zero(t, f.Confidence)
	})

	t.Run("steady uptrend projects long", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		f := b.Blend("BTC-USDT", steadyUptrend(60), 1.0)

		assert.Equal(t, trade.DirectionLong, f.Direction)
		assert.Greater(t, f.MovePercent, 0.0)
		assert.LessOrEqual(t, f.MovePercent, noiselessConfig().MaxMovePercent)
		assert.Greater(t, f.PredictedPrice, f.CurrentPrice)
		assert.Greater(t, f.Confidence, 0.0)
		assert.Greater(t, f.ProfitLikelihood, 0.0)
	})

	t.Run("steady downtrend projects short", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 120 - float64(i)*0.2
		}
		f := b.Blend("BTC-USDT", closes, 1.0)

		assert.Equal(t, trade.DirectionShort, f.Direction)
		assert.Less(t, f.MovePercent, 0.0)
		assert.Less(t, f.PredictedPrice, f.CurrentPrice)
	})

	t.Run("boldness amplifies the projected move", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)
		closes := steadyUptrend(60)

		timid := b.Blend("BTC-USDT", closes, 1.0)
		bold := b.Blend("BTC-USDT", closes, 2.0)

		require.Greater(t, timid.MovePercent, 0.0)
		assert.InDelta(t, timid.MovePercent*2, bold.MovePercent, 1e-9)
	})

	t.Run("move is clamped to the ceiling regardless of boldness", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		f := b.Blend("BTC-USDT", steadyUptrend(60), 50.0)
		assert.InDelta(t, noiselessConfig().MaxMovePercent, f.MovePercent, 1e-9)
	})

	t.Run("boldness below one is treated as one", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)
		closes := steadyUptrend(60)

		unit := b.Blend("BTC-USDT", closes, 1.0)
		sub := b.Blend("BTC-USDT", closes, 0.3)
		assert.InDelta(t, unit.MovePercent, sub.MovePercent, 1e-9)
	})

	t.Run("empty closes yield an inert wait forecast", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		f := b.Blend("BTC-USDT", nil, 1.0)
		assert.Equal(t, trade.DirectionWait, f.Direction)
		assert.Zero(t, f.CurrentPrice)
		assert.False(t, f.DueAt.Before(f.CreatedAt))
	})

	t.Run("every strategy contributes a projection", func(t *testing.T) {
		b := NewBlender(noiselessConfig(), nil)

		f := b.Blend("BTC-USDT", steadyUptrend(60), 1.0)
		require.Len(t, f.PerStrategy, 4)
		for name, p := range f.PerStrategy {
			assert.False(t, math.IsNaN(p), "strategy %s", name)
			assert.Greater(t, p, 0.0, "strategy %s", name)
		}
	})

	t.Run("noise is reproducible under a seeded source", func(t *testing.T) {
		cfg := DefaultConfig()

		a := NewBlender(cfg, rand.New(rand.NewSource(42))).Blend("BTC-USDT", steadyUptrend(60), 1.0)
		b := NewBlender(cfg, rand.New(rand.NewSource(42))).Blend("BTC-USDT", steadyUptrend(60), 1.0)

		assert.InDelta(t, a.MovePercent, b.MovePercent, 1e-12)
		assert.Equal(t, a.Direction, b.Direction)
	})

	t.Run("due time honors the horizon", func(t *testing.T) {
		cfg := noiselessConfig()
		cfg.HorizonMinutes = 45
		b := NewBlender(cfg, nil)

		f := b.Blend("BTC-USDT", steadyUptrend(60), 1.0)
		assert.Equal(t, f.CreatedAt.Add(f.Horizon), f.DueAt)
		assert.InDelta(t, 45, f.Horizon.Minutes(), 1e-9)
	})
}

func TestWeightNormalization(t *testing.T) {
	t.Run("arbitrary positive weights are normalized", func(t *testing.T) {
		cfg := noiselessConfig()
		cfg.MomentumWeight = 7
		cfg.MeanReversionWeight = 5
		cfg.DriftWeight = 5
		cfg.RangeWeight = 3
		b := NewBlender(cfg, nil)

		var total float64
		for _, w := range b.strategies {
			total += w.weight
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})

	t.Run("all-zero weights fall back to an even split", func(t *testing.T) {
		cfg := noiselessConfig()
		cfg.MomentumWeight = 0
		cfg.MeanReversionWeight = 0
		cfg.DriftWeight = 0
		cfg.RangeWeight = 0
		b := NewBlender(cfg, nil)

		for _, w := range b.strategies {
			assert.InDelta(t, 0.25, w.weight, 1e-9)
		}
	})
}
