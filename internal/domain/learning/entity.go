package learning

import "time"

// Canonical feature names used on trade records and in the weight table
const (
	FeatureRSI        = "rsi"
	FeatureMACD       = "macd"
	FeatureBollinger  = "bollinger"
	FeatureStochastic = "stochastic"
	FeatureEMA        = "ema"
	FeatureTrend      = "trend"
	FeatureMomentum   = "momentum"
	FeatureVolume     = "volume"
	FeatureVolatility = "volatility"
)

// Feature weight bounds
const (
	FeatureWeightMin = 0.1
	FeatureWeightMax = 10.0
	PatternWeightMin = 0.1
	PatternWeightMax = 5.0
)

// FeatureWeight holds the adaptive weight of one indicator feature
type FeatureWeight struct {
	Weight     float64 `json:"weight"` // clamped to [FeatureWeightMin, FeatureWeightMax]
	UsageCount int     `json:"usage_count"`
}

// CorrelationPattern tracks how an entry pattern performed for one symbol
type CorrelationPattern struct {
	Symbol       string    `json:"symbol"`
	PatternID    string    `json:"pattern_id"`
	Weight       float64   `json:"weight"` // clamped to [PatternWeightMin, PatternWeightMax]
	SuccessCount int       `json:"success_count"`
	TotalCount   int       `json:"total_count"`
	SuccessRate  float64   `json:"success_rate"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// ConvergenceState of the boldness state machine
type ConvergenceState string

const (
	StateLearning   ConvergenceState = "LEARNING"
	StateConverging ConvergenceState = "CONVERGING"
	StateConverged  ConvergenceState = "CONVERGED"
)

// String returns string representation
func (s ConvergenceState) String() string {
	return string(s)
}

// Boldness multiplier bounds
const (
	BoldnessFloor = 1.0
	BoldnessCeil  = 6.0
)

// BoldnessMetrics is the process-wide forecast-aggressiveness state
type BoldnessMetrics struct {
	GlobalBoldnessMultiplier     float64          `json:"global_boldness_multiplier"` // [BoldnessFloor, BoldnessCeil]
	RecentAccuracyPercentage     float64          `json:"recent_accuracy_percentage"`
	ConsecutiveAccurateForecasts int              `json:"consecutive_accurate_forecasts"`
	ConsecutiveInaccurate        int              `json:"consecutive_inaccurate_forecasts"`
	AchievedTargetStreak         int              `json:"achieved_target_streak"`
	ConvergenceState             ConvergenceState `json:"convergence_state"`
	TotalForecastWindows         int              `json:"total_forecast_windows"`
	AccurateWindows              int              `json:"accurate_windows"`
}

// SymbolHistory is the in-memory per-symbol trade record aggregate the
// predictor consults; updated as learning is applied, never loaded from disk
// on the evaluation path.
type SymbolHistory struct {
	TradeCount           int     `json:"trade_count"`
	WinCount             int     `json:"win_count"`
	AvgProfitPercent     float64 `json:"avg_profit_percent"`
	AvgTimeInProfitRatio float64 `json:"avg_time_in_profit_ratio"`
}

// WinRate returns the historical win rate in [0,1], zero with no trades
func (h SymbolHistory) WinRate() float64 {
	if h.TradeCount == 0 {
		return 0
	}
	return float64(h.WinCount) / float64(h.TradeCount)
}

// Snapshot is a copyable view of the whole learning state, used both by
// read-only accessors and by the checkpoint store.
type Snapshot struct {
	FeatureWeights map[string]FeatureWeight                 `json:"feature_weights"`
	Patterns       map[string]map[string]CorrelationPattern `json:"patterns"` // symbol -> patternID
	Boldness       BoldnessMetrics                          `json:"boldness"`
	Histories      map[string]SymbolHistory                 `json:"histories"`
	TakenAt        time.Time                                `json:"taken_at"`
}
