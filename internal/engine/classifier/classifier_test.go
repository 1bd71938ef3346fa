package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"helios/internal/domain/market"
)

// bullishSnapshot has four of the six trend signals bullish
func bullishSnapshot() market.IndicatorSnapshot {
	return market.IndicatorSnapshot{
		Symbol:    "BTC-USDT",
		Price:     105,
		SMA20:     103, // price > SMA20
		SMA50:     100, // price > SMA50, SMA20 > SMA50
		EMAShort:  104, // > EMAMid
		EMAMid:    102,
		EMALong:   100,
		MACD:      -0.5, // bearish
		RSI:       45,   // bearish
		Bollinger: market.BollingerBands{Upper: 105.5, Middle: 105, Lower: 104.5},
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier()

	t.Run("four of six signals yields bullish trend", func(t *testing.T) {
		cond := c.Classify(bullishSnapshot())

		assert.InDelta(t, 66.67, cond.TrendStrength, 0.01)
		assert.Equal(t, market.TrendBullish, cond.Trend)
	})

	t.Run("all signals bullish yields strong bullish", func(t *testing.T) {
		snap := bullishSnapshot()
		snap.MACD = 1.2
		snap.RSI = 65

		cond := c.Classify(snap)

		assert.Equal(t, 100.0, cond.TrendStrength)
		assert.Equal(t, market.TrendStrongBullish, cond.Trend)
	})

	t.Run("all signals bearish yields strong bearish", func(t *testing.T) {
		snap := market.IndicatorSnapshot{
			Price:     95,
			SMA20:     97,
			SMA50:     100,
			EMAShort:  96,
			EMAMid:    98,
			MACD:      -1,
			RSI:       35,
			Bollinger: market.BollingerBands{Upper: 96, Middle: 95, Lower: 94},
		}

		cond := c.Classify(snap)

		assert.Zero(t, cond.TrendStrength)
		assert.Equal(t, market.TrendStrongBearish, cond.Trend)
	})

	t.Run("volatility tiers follow bollinger width", func(t *testing.T) {
		cases := []struct {
			name  string
			upper float64
			lower float64
			want  market.VolLevel
		}{
			{"narrow band is low", 100.5, 99.5, market.VolLow},
			{"medium band", 102, 98, market.VolMedium},
			{"wide band is high", 104, 96, market.VolHigh},
			{"very wide band is extreme", 106, 94, market.VolExtreme},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				snap := bullishSnapshot()
				snap.Bollinger = market.BollingerBands{Upper: tc.upper, Middle: 100, Lower: tc.lower}

				cond := c.Classify(snap)
				assert.Equal(t, tc.want, cond.Volatility)
			})
		}
	})

	t.Run("momentum is bounded and sign matches RSI side", func(t *testing.T) {
		snap := bullishSnapshot()
		snap.RSI = 90
		snap.MACD = 50

		cond := c.Classify(snap)
		assert.Greater(t, cond.Momentum, 0.0)
		assert.LessOrEqual(t, cond.Momentum, 100.0)

		snap.RSI = 10
		snap.MACD = -50
		cond = c.Classify(snap)
		assert.Less(t, cond.Momentum, 0.0)
		assert.GreaterOrEqual(t, cond.Momentum, -100.0)
	})

	t.Run("market score stays within bounds", func(t *testing.T) {
		snap := bullishSnapshot()
		snap.RSI = 99
		snap.MACD = 100

		cond := c.Classify(snap)
		assert.GreaterOrEqual(t, cond.MarketScore, 0.0)
		assert.LessOrEqual(t, cond.MarketScore, 100.0)
	})
}

func TestOptimalLevels(t *testing.T) {
	c := NewClassifier()

	t.Run("strong trend in extreme volatility stretches both levels", func(t *testing.T) {
		tp, sl := c.optimalLevels(market.TrendStrongBullish, market.VolExtreme)

		assert.InDelta(t, 4.5, tp, 1e-9) // 2.0 * 1.5 * 1.5
		assert.InDelta(t, 1.5, sl, 1e-9)
	})

	t.Run("neutral trend in low volatility tightens the target", func(t *testing.T) {
		tp, sl := c.optimalLevels(market.TrendNeutral, market.VolLow)

		assert.InDelta(t, 1.12, tp, 1e-9) // 2.0 * 0.8 * 0.7
		assert.InDelta(t, 0.8, sl, 1e-9)
	})

	t.Run("levels never leave their clamps", func(t *testing.T) {
		trends := []market.TrendType{
			market.TrendStrongBullish, market.TrendBullish, market.TrendNeutral,
			market.TrendBearish, market.TrendStrongBearish,
		}
		vols := []market.VolLevel{market.VolLow, market.VolMedium, market.VolHigh, market.VolExtreme}

		for _, trend := range trends {
			for _, vol := range vols {
				tp, sl := c.optimalLevels(trend, vol)
				assert.GreaterOrEqual(t, tp, minTPPercent)
				assert.LessOrEqual(t, tp, maxTPPercent)
				assert.GreaterOrEqual(t, sl, minSLPercent)
				assert.LessOrEqual(t, sl, maxSLPercent)
			}
		}
	})
}
