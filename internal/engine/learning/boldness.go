package learning

import (
	"helios/internal/domain/learning"
	"helios/internal/domain/trade"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Boldness tier thresholds (recent accuracy, percent) and their caps
const (
	accuracyTierElite  = 85.0
	accuracyTierStrong = 75.0
	accuracyTierGood   = 65.0
	accuracyTierHold   = 50.0

	tierEliteGrowth  = 1.15
	tierEliteCap     = 5.0
	tierStrongGrowth = 1.08
	tierStrongCap    = 4.0
	tierGoodGrowth   = 1.03
	tierGoodCap      = 3.5

	shrinkFactor = 0.85
	shrinkFloor  = 1.2
)

// Streak adjustments applied after the tier step
const (
	inaccurateStreakLimit  = 3
	accurateStreakLimit    = 5
	streakShrinkFactor     = 0.9
	streakGrowthFactor     = 1.1
	streakGrowthCap        = learning.BoldnessCeil
	accurateThresholdPct   = 70.0
	achievedTargetAccuracy = 85.0
)

// Convergence detection thresholds
const (
	convergenceMinSamples     = 10
	convergedLifetimePct      = 90.0
	convergedRecentPct        = 75.0
	convergingLifetimePct     = 70.0
	convergingRecentPct       = 70.0
	recentAccuracyWindow      = 10
	defaultAccuracyHistoryCap = 50
)

// BoldnessManagerConfig holds the boldness feedback tunables
type BoldnessManagerConfig struct {
	HistoryCap   int
	RecentWindow int
	// MinSamples is the accuracy sample count below which the manager
	// stays in the LEARNING state
	MinSamples int
}

// DefaultBoldnessManagerConfig returns the standard boldness settings
func DefaultBoldnessManagerConfig() BoldnessManagerConfig {
	return BoldnessManagerConfig{
		HistoryCap:   defaultAccuracyHistoryCap,
		RecentWindow: recentAccuracyWindow,
		MinSamples:   convergenceMinSamples,
	}
}

// BoldnessManager adjusts the global forecast aggressiveness multiplier
// from realized forecast accuracy. Accurate runs expand the multiplier
// toward its ceiling, inaccurate runs contract it quickly.
type BoldnessManager struct {
	state    *State
	cfg      BoldnessManagerConfig
	movement MovementFilter
	log      *logger.Logger
}

// NewBoldnessManager creates a manager sharing the injected state and
// movement filter.
func NewBoldnessManager(state *State, cfg BoldnessManagerConfig, movement MovementFilter) *BoldnessManager {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = defaultAccuracyHistoryCap
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = recentAccuracyWindow
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = convergenceMinSamples
	}
	return &BoldnessManager{
		state:    state,
		cfg:      cfg,
		movement: movement,
		log:      logger.Get().With("component", "boldness_manager"),
	}
}

// Update records one realized forecast accuracy sample and recalculates
// the boldness multiplier and convergence state. Trades below the
// movement threshold contribute nothing, and a trade whose accuracy has
// already been recorded is rejected.
func (m *BoldnessManager) Update(accuracyPct float64, t *trade.Record) error {
	if t != nil {
		if t.AccuracyRecorded {
			return errors.ErrAlreadyProcessed
		}
		if !m.movement.Allows(t) {
			t.AccuracyRecorded = true
			m.log.Debugf("trade %s skipped for boldness: movement %.4f%% below threshold",
				t.ID, t.ActualMovementPercent)
			return nil
		}
		t.AccuracyRecorded = true
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	m.state.accuracyHistory = append(m.state.accuracyHistory, accuracyPct)
	if len(m.state.accuracyHistory) > m.cfg.HistoryCap {
		m.state.accuracyHistory = m.state.accuracyHistory[len(m.state.accuracyHistory)-m.cfg.HistoryCap:]
	}

	b := &m.state.boldness
	b.TotalForecastWindows++

	accurate := accuracyPct >= accurateThresholdPct
	if accurate {
		b.AccurateWindows++
		b.ConsecutiveAccurateForecasts++
		b.ConsecutiveInaccurate = 0
	} else {
		b.ConsecutiveInaccurate++
		b.ConsecutiveAccurateForecasts = 0
	}
	if accuracyPct >= achievedTargetAccuracy {
		b.AchievedTargetStreak++
	} else {
		b.AchievedTargetStreak = 0
	}

	recent := m.recentAccuracyLocked()
	b.RecentAccuracyPercentage = recent

	mult := b.GlobalBoldnessMultiplier
	switch {
	case recent >= accuracyTierElite:
		mult = capAt(mult*tierEliteGrowth, tierEliteCap)
	case recent >= accuracyTierStrong:
		mult = capAt(mult*tierStrongGrowth, tierStrongCap)
	case recent >= accuracyTierGood:
		mult = capAt(mult*tierGoodGrowth, tierGoodCap)
	case recent >= accuracyTierHold:
		// Hold band: no change
	default:
		mult *= shrinkFactor
		if mult < shrinkFloor {
			mult = shrinkFloor
		}
	}

	if b.ConsecutiveInaccurate >= inaccurateStreakLimit {
		mult *= streakShrinkFactor
	} else if b.ConsecutiveAccurateForecasts >= accurateStreakLimit {
		mult = capAt(mult*streakGrowthFactor, streakGrowthCap)
	}

	b.GlobalBoldnessMultiplier = clamp(mult, learning.BoldnessFloor, learning.BoldnessCeil)
	b.ConvergenceState = m.convergenceLocked(recent)

	return nil
}

// recentAccuracyLocked averages the last RecentWindow samples. Must hold
// the state lock.
func (m *BoldnessManager) recentAccuracyLocked() float64 {
	hist := m.state.accuracyHistory
	if len(hist) == 0 {
		return 0
	}
	start := 0
	if len(hist) > m.cfg.RecentWindow {
		start = len(hist) - m.cfg.RecentWindow
	}
	var sum float64
	for _, v := range hist[start:] {
		sum += v
	}
	return sum / float64(len(hist)-start)
}

// convergenceLocked derives the learning-phase state from lifetime and
// recent accuracy. Must hold the state lock.
func (m *BoldnessManager) convergenceLocked(recent float64) learning.ConvergenceState {
	b := m.state.boldness
	if b.TotalForecastWindows < m.cfg.MinSamples {
		return learning.StateLearning
	}
	lifetime := 100 * float64(b.AccurateWindows) / float64(b.TotalForecastWindows)
	switch {
	case lifetime >= convergedLifetimePct && recent >= convergedRecentPct:
		return learning.StateConverged
	case lifetime >= convergingLifetimePct && recent >= convergingRecentPct:
		return learning.StateConverging
	default:
		return learning.StateLearning
	}
}

func capAt(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}
