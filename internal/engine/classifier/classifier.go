package classifier

import (
	"helios/internal/domain/market"
)

// Trend bucket boundaries on the 0-100 strength scale
const (
	strongBullishMin = 80.0
	bullishMin       = 60.0
	neutralMin       = 40.0
	bearishMin       = 20.0
)

// Volatility tier boundaries on Bollinger width as % of price
const (
	volLowMax    = 2.0
	volMediumMax = 5.0
	volHighMax   = 10.0
)

// Base dynamic TP/SL levels and their clamps, in percent
const (
	baseTPPercent = 2.0
	baseSLPercent = 1.0
	minTPPercent  = 1.0
	maxTPPercent  = 5.0
	minSLPercent  = 0.5
	maxSLPercent  = 3.0
)

// Classifier converts an indicator snapshot into a market regime
type Classifier struct{}

// NewClassifier creates a market condition classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify derives trend, volatility tier, momentum, market score and
// dynamic TP/SL levels from one indicator snapshot.
func (c *Classifier) Classify(snap market.IndicatorSnapshot) market.Condition {
	strength := c.trendStrength(snap)
	trend := trendBucket(strength)
	vol := volatilityBucket(snap.Bollinger.Width())
	momentum := c.momentum(snap)

	tp, sl := c.optimalLevels(trend, vol)

	score := 50 + 0.4*(strength-50) + volatilityBonus(vol) + 0.3*abs(momentum)

	return market.Condition{
		Symbol:           snap.Symbol,
		Trend:            trend,
		TrendStrength:    strength,
		Volatility:       vol,
		Momentum:         momentum,
		MarketScore:      clamp(score, 0, 100),
		RiskRewardRatio:  tp / sl,
		OptimalTPPercent: tp,
		OptimalSLPercent: sl,
	}
}

// trendStrength counts six independent bullish signals and maps the count
// to 0-100.
func (c *Classifier) trendStrength(snap market.IndicatorSnapshot) float64 {
	score := 0
	if snap.Price > snap.SMA20 {
		score++
	}
	if snap.Price > snap.SMA50 {
		score++
	}
	if snap.SMA20 > snap.SMA50 {
		score++
	}
	if snap.EMAShort > snap.EMAMid {
		score++
	}
	if snap.MACD > 0 {
		score++
	}
	if snap.RSI > 50 {
		score++
	}
	return float64(score) / 6.0 * 100.0
}

// momentum blends normalized RSI deviation from 50 with scaled MACD,
// bounded to [-100, 100].
func (c *Classifier) momentum(snap market.IndicatorSnapshot) float64 {
	rsiComp := 2 * (snap.RSI - 50) // [-100, 100]

	macdComp := 0.0
	if snap.Price > 0 {
		macdComp = clamp(snap.MACD/snap.Price*100*20, -100, 100)
	}

	return clamp(0.6*rsiComp+0.4*macdComp, -100, 100)
}

// optimalLevels derives dynamic TP/SL percentages from trend and volatility
func (c *Classifier) optimalLevels(trend market.TrendType, vol market.VolLevel) (tp, sl float64) {
	tp = baseTPPercent
	sl = baseSLPercent

	switch {
	case trend.IsStrong():
		tp *= 1.5
	case trend == market.TrendNeutral:
		tp *= 0.8
	}

	switch vol {
	case market.VolLow:
		tp *= 0.7
		sl *= 0.8
	case market.VolHigh:
		tp *= 1.3
		sl *= 1.2
	case market.VolExtreme:
		tp *= 1.5
		sl *= 1.5
	}

	return clamp(tp, minTPPercent, maxTPPercent), clamp(sl, minSLPercent, maxSLPercent)
}

func trendBucket(strength float64) market.TrendType {
	switch {
	case strength >= strongBullishMin:
		return market.TrendStrongBullish
	case strength >= bullishMin:
		return market.TrendBullish
	case strength >= neutralMin:
		return market.TrendNeutral
	case strength >= bearishMin:
		return market.TrendBearish
	default:
		return market.TrendStrongBearish
	}
}

func volatilityBucket(widthPct float64) market.VolLevel {
	switch {
	case widthPct < volLowMax:
		return market.VolLow
	case widthPct < volMediumMax:
		return market.VolMedium
	case widthPct < volHighMax:
		return market.VolHigh
	default:
		return market.VolExtreme
	}
}

func volatilityBonus(vol market.VolLevel) float64 {
	switch vol {
	case market.VolLow:
		return 10
	case market.VolMedium:
		return 5
	case market.VolHigh:
		return -5
	default:
		return -15
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

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
