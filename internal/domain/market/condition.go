package market

// TrendType is the qualitative market-direction bucket
type TrendType string

const (
	TrendStrongBullish TrendType = "STRONG_BULLISH"
	TrendBullish       TrendType = "BULLISH"
	TrendNeutral       TrendType = "NEUTRAL"
	TrendBearish       TrendType = "BEARISH"
	TrendStrongBearish TrendType = "STRONG_BEARISH"
)

// String returns string representation
func (t TrendType) String() string {
	return string(t)
}

// IsBullish reports whether the trend favors long entries
func (t TrendType) IsBullish() bool {
	return t == TrendBullish || t == TrendStrongBullish
}

// IsBearish reports whether the trend favors short entries
func (t TrendType) IsBearish() bool {
	return t == TrendBearish || t == TrendStrongBearish
}

// IsStrong reports whether the trend is in a strong bucket
func (t TrendType) IsStrong() bool {
	return t == TrendStrongBullish || t == TrendStrongBearish
}

// VolLevel is the volatility tier
type VolLevel string

const (
	VolLow     VolLevel = "LOW"
	VolMedium  VolLevel = "MEDIUM"
	VolHigh    VolLevel = "HIGH"
	VolExtreme VolLevel = "EXTREME"
)

// String returns string representation
func (v VolLevel) String() string {
	return string(v)
}

// Condition is the derived market regime for one symbol, recomputed on
// every evaluation and never persisted by the core itself.
type Condition struct {
	Symbol        string    `json:"symbol"`
	Trend         TrendType `json:"trend"`
	TrendStrength float64   `json:"trend_strength"` // 0-100
	Volatility    VolLevel  `json:"volatility"`
	Momentum      float64   `json:"momentum"`     // -100..100
	MarketScore   float64   `json:"market_score"` // 0-100

	RiskRewardRatio  float64 `json:"risk_reward_ratio"`
	OptimalTPPercent float64 `json:"optimal_tp_percent"`
	OptimalSLPercent float64 `json:"optimal_sl_percent"`
}
