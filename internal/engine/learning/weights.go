package learning

import (
	"math"
	"time"

	"helios/internal/domain/learning"
	"helios/internal/domain/trade"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Reward mapping constants
const (
	rewardWin          = 1.0
	rewardLoss         = -1.0
	expiredRewardClamp = 0.5
	mfeBonusFactor     = 0.2
	drawdownPenalty    = 0.2
	rewardClamp        = 1.4
)

// Pattern updates use a fixed step instead of the usage-count decay
const patternStep = 0.1

// minDecay floors the per-feature learning rate decay
const minDecay = 0.01

// LearnerConfig holds the weight learner tunables
type LearnerConfig struct {
	LearningRateMultiplier float64
}

// DefaultLearnerConfig returns the standard learner settings
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{LearningRateMultiplier: 1.0}
}

// Learner converts a completed trade's realized reward into per-feature
// weight adjustments and per-pattern correlation statistics.
type Learner struct {
	state    *State
	cfg      LearnerConfig
	movement MovementFilter
	log      *logger.Logger
}

// NewLearner creates a feature weight learner sharing the injected state
// and movement filter.
func NewLearner(state *State, cfg LearnerConfig, movement MovementFilter) *Learner {
	if cfg.LearningRateMultiplier <= 0 {
		cfg.LearningRateMultiplier = 1.0
	}
	return &Learner{
		state:    state,
		cfg:      cfg,
		movement: movement,
		log:      logger.Get().With("component", "weight_learner"),
	}
}

// Reward maps a terminal trade outcome to the signed learning reward,
// including the MFE bonus and drawdown penalty, clamped to [-1.4, 1.4].
func (l *Learner) Reward(t *trade.Record) float64 {
	var base float64
	switch t.Outcome {
	case trade.OutcomeTPHit, trade.OutcomePulloutProfit:
		base = rewardWin
	case trade.OutcomeSLHit, trade.OutcomeNoProfit:
		base = rewardLoss
	case trade.OutcomeExpired:
		// Legacy timeout outcome: proportional scaled P&L
		base = clamp(t.ProfitLossPercent/2.0, -expiredRewardClamp, expiredRewardClamp)
	default:
		return 0
	}

	if tpDist := t.TPDistancePercent(); tpDist > 0 {
		base += mfeBonusFactor * (t.MaxFavorableExcursion / tpDist)
	}
	if slDist := t.SLDistancePercent(); slDist > 0 {
		base -= drawdownPenalty * (math.Abs(t.MaxDrawdown) / slDist)
	}

	return clamp(base, -rewardClamp, rewardClamp)
}

// Apply feeds the reward into the feature weights, the correlation pattern
// of the entry and the symbol's history aggregate. It is idempotent: a
// trade already marked processed is skipped, and a trade that fails the
// movement filter is marked excluded before any weight is touched.
func (l *Learner) Apply(t *trade.Record, reward float64) error {
	if t == nil || !t.IsClosed() {
		return errors.ErrTradeNotClosed
	}
	if t.LearningProcessed {
		return errors.ErrAlreadyProcessed
	}

	if !l.movement.Allows(t) {
		t.ExcludedFromLearning = true
		t.LearningProcessed = true
		l.log.Debugf("trade %s excluded from learning: movement %.4f%% below threshold",
			t.ID, t.ActualMovementPercent)
		return nil
	}

	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	for _, feature := range t.UsedFeatures {
		l.updateFeatureLocked(feature, reward)
	}
	if t.PatternID != "" {
		l.updatePatternLocked(t.Symbol, t.PatternID, reward)
	}
	l.updateHistoryLocked(t)

	t.LearningProcessed = true
	return nil
}

// updateFeatureLocked applies one decayed weight step. Must hold the state
// write lock.
func (l *Learner) updateFeatureLocked(feature string, reward float64) {
	fw, ok := l.state.features[feature]
	if !ok {
		fw = learning.FeatureWeight{Weight: 1.0}
	}

	fw.UsageCount++
	decay := math.Max(minDecay, 1/math.Sqrt(float64(fw.UsageCount)))
	fw.Weight += reward * decay * l.cfg.LearningRateMultiplier
	fw.Weight = clamp(fw.Weight, learning.FeatureWeightMin, learning.FeatureWeightMax)

	l.state.features[feature] = fw
}

// updatePatternLocked applies the fixed-step pattern correlation update.
// Must hold the state write lock.
func (l *Learner) updatePatternLocked(symbol, patternID string, reward float64) {
	pats, ok := l.state.patterns[symbol]
	if !ok {
		pats = make(map[string]learning.CorrelationPattern)
		l.state.patterns[symbol] = pats
	}

	p, ok := pats[patternID]
	if !ok {
		p = learning.CorrelationPattern{
			Symbol:    symbol,
			PatternID: patternID,
			Weight:    1.0,
		}
	}

	p.Weight += reward * patternStep * l.cfg.LearningRateMultiplier
	p.Weight = clamp(p.Weight, learning.PatternWeightMin, learning.PatternWeightMax)

	p.TotalCount++
	if reward > 0 {
		p.SuccessCount++
	}
	p.SuccessRate = float64(p.SuccessCount) / float64(p.TotalCount)
	p.LastUsedAt = time.Now().UTC()

	pats[patternID] = p
}

// updateHistoryLocked folds the trade into the symbol's running aggregate.
// Must hold the state write lock.
func (l *Learner) updateHistoryLocked(t *trade.Record) {
	h := l.state.histories[t.Symbol]

	n := float64(h.TradeCount)
	h.AvgProfitPercent = (h.AvgProfitPercent*n + t.ProfitLossPercent) / (n + 1)
	h.AvgTimeInProfitRatio = (h.AvgTimeInProfitRatio*n + t.TimeInProfitRatio) / (n + 1)
	h.TradeCount++
	if t.ProfitLossPercent > 0 {
		h.WinCount++
	}

	l.state.histories[t.Symbol] = h
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
