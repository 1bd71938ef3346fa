package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	domlearning "helios/internal/domain/learning"
	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/internal/engine/classifier"
	"helios/internal/engine/forecast"
	"helios/internal/engine/gate"
	"helios/internal/engine/indicators"
	"helios/internal/engine/learning"
	"helios/internal/engine/outcome"
	"helios/internal/engine/predictor"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// defaultProfitThreshold is the signed profit percent a path sample must
// exceed to count as profitable when scoring completed trades
const defaultProfitThreshold = 0.5

// Config assembles the tunables of every stage
type Config struct {
	Indicators      indicators.Config
	Gate            gate.Config
	Learner         learning.LearnerConfig
	Boldness        learning.BoldnessManagerConfig
	Forecast        forecast.Config
	ProfitThreshold float64

	// MovementThresholdPct excludes low-movement trades from learning
	MovementThresholdPct float64
}

// DefaultConfig returns the calibrated defaults of every stage
func DefaultConfig() Config {
	return Config{
		Indicators:           indicators.DefaultConfig(),
		Gate:                 gate.DefaultConfig(),
		Learner:              learning.DefaultLearnerConfig(),
		Boldness:             learning.DefaultBoldnessManagerConfig(),
		Forecast:             forecast.DefaultConfig(),
		ProfitThreshold:      defaultProfitThreshold,
		MovementThresholdPct: learning.DefaultMovementThresholdPct,
	}
}

// Evaluation is the full result of one symbol evaluation: every stage's
// output plus the terminal gate result.
type Evaluation struct {
	Symbol      string
	Snapshot    market.IndicatorSnapshot
	Condition   market.Condition
	Forecast    forecast.Forecast
	Prediction  predictor.Prediction
	Gate        gate.Result
	EvaluatedAt time.Time
}

// Core is the trade decision pipeline: indicators, classification,
// forecast, prediction and the gate, plus the learning feedback loop.
// Evaluations for the same symbol are serialized; different symbols run
// concurrently.
type Core struct {
	cfg        Config
	indicators *indicators.Engine
	classifier *classifier.Classifier
	blender    *forecast.Blender
	predictor  *predictor.Predictor
	gate       *gate.Gate
	scorer     *outcome.Scorer

	state    *learning.State
	learner  *learning.Learner
	boldness *learning.BoldnessManager

	mu          sync.Mutex
	symbolLocks map[string]*sync.Mutex

	log *logger.Logger
}

// NewCore wires the pipeline. rnd seeds the forecast strategies' noise
// term; pass a fixed-seed source in tests.
func NewCore(cfg Config, rnd *rand.Rand) *Core {
	if cfg.ProfitThreshold <= 0 {
		cfg.ProfitThreshold = defaultProfitThreshold
	}
	if cfg.MovementThresholdPct <= 0 {
		cfg.MovementThresholdPct = learning.DefaultMovementThresholdPct
	}

	state := learning.NewState(cfg.Boldness.HistoryCap)
	movement := learning.NewMovementFilter(cfg.MovementThresholdPct)

	return &Core{
		cfg:         cfg,
		indicators:  indicators.NewEngine(cfg.Indicators),
		classifier:  classifier.NewClassifier(),
		blender:     forecast.NewBlender(cfg.Forecast, rnd),
		predictor:   predictor.NewPredictor(),
		gate:        gate.NewGate(cfg.Gate),
		scorer:      outcome.NewScorer(),
		state:       state,
		learner:     learning.NewLearner(state, cfg.Learner, movement),
		boldness:    learning.NewBoldnessManager(state, cfg.Boldness, movement),
		symbolLocks: make(map[string]*sync.Mutex),
		log:         logger.Get().With("component", "core"),
	}
}

// Evaluate runs the full decision pipeline for one symbol. hasOpenTrade
// tells the gate whether the symbol already holds a position. Evaluations
// of the same symbol never interleave.
func (c *Core) Evaluate(ctx context.Context, symbol string, w market.Window, hasOpenTrade bool) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(w) == 0 {
		return nil, errors.Wrapf(errors.ErrInsufficientData, "evaluate %s: empty window", symbol)
	}

	lock := c.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	snap := c.indicators.Compute(symbol, w, now)
	cond := c.classifier.Classify(snap)

	fc := c.blender.Blend(symbol, w.Sanitize().Closes(), c.state.Multiplier())

	history := c.state.History(symbol)
	pred := c.predictor.Predict(symbol, fc.Direction, cond, fc.Confidence, fc.ProfitLikelihood, history)

	features := usedFeatures(snap)
	patternID := patternID(cond, fc.Direction)

	res := c.gate.Decide(gate.Input{
		Symbol:           symbol,
		Direction:        fc.Direction,
		EntryPrice:       snap.Price,
		Confidence:       fc.Confidence,
		ProfitLikelihood: fc.ProfitLikelihood,
		Snapshot:         snap,
		Condition:        cond,
		Prediction:       pred,
		UsedFeatures:     features,
		PatternID:        patternID,
		HasOpenTrade:     hasOpenTrade,
	})

	if res.Approved {
		c.log.Infow("trade approved",
			"symbol", symbol,
			"direction", fc.Direction,
			"confidence", fc.Confidence,
			"predicted_score", pred.PredictedSuccessScore,
			"entry_timing", res.EntryTimingScore,
		)
	} else {
		c.log.Debugw("evaluation rejected",
			"symbol", symbol,
			"reason", res.RejectReason,
			"direction", fc.Direction,
		)
	}

	return &Evaluation{
		Symbol:      symbol,
		Snapshot:    snap,
		Condition:   cond,
		Forecast:    fc,
		Prediction:  pred,
		Gate:        res,
		EvaluatedAt: now,
	}, nil
}

// ScoreCompletedTrade grades a closed trade against its intra-trade price
// path and stamps the realized metrics onto the record.
func (c *Core) ScoreCompletedTrade(t *trade.Record, pricePath []float64) (*outcome.Score, error) {
	if t == nil || !t.IsClosed() {
		return nil, errors.ErrTradeNotClosed
	}

	score := c.scorer.Score(t.EntryPriceF(), t.Direction, pricePath, c.cfg.ProfitThreshold)

	t.SuccessScore = score.FinalScore
	t.TimeInProfitRatio = score.TimeInProfitRatio

	// MFE is favorable only, drawdown adverse only: a path that never
	// crosses entry must not leak profit into the drawdown penalty or a
	// loss into the MFE bonus.
	t.MaxFavorableExcursion = math.Max(0, score.MaxProfit)
	t.MaxDrawdown = math.Min(0, score.MinProfit)
	if score.MaxProfit > t.HighestProfit {
		t.HighestProfit = score.MaxProfit
	}
	if score.MinProfit < t.LowestLoss {
		t.LowestLoss = score.MinProfit
	}
	if score.MaxProfit > -score.MinProfit {
		t.ActualMovementPercent = score.MaxProfit
	} else {
		t.ActualMovementPercent = -score.MinProfit
	}

	return &score, nil
}

// Reward maps a closed trade's outcome to the signed learning reward
func (c *Core) Reward(t *trade.Record) float64 {
	return c.learner.Reward(t)
}

// ApplyLearning feeds the reward into feature weights, pattern statistics
// and the symbol history. Idempotent per trade.
func (c *Core) ApplyLearning(t *trade.Record, reward float64) error {
	return c.learner.Apply(t, reward)
}

// RecordForecastAccuracy feeds one realized accuracy sample into the
// boldness feedback loop.
func (c *Core) RecordForecastAccuracy(accuracyPct float64, t *trade.Record) error {
	return c.boldness.Update(accuracyPct, t)
}

// FeatureWeights returns a copy of the adaptive feature weight table
func (c *Core) FeatureWeights() map[string]domlearning.FeatureWeight {
	return c.state.FeatureWeights()
}

// CorrelationPatterns returns a copy of the symbol's pattern statistics
func (c *Core) CorrelationPatterns(symbol string) map[string]domlearning.CorrelationPattern {
	return c.state.Patterns(symbol)
}

// BoldnessMetrics returns the current boldness feedback state
func (c *Core) BoldnessMetrics() domlearning.BoldnessMetrics {
	return c.state.Boldness()
}

// BoldnessMultiplier returns the current global boldness multiplier
func (c *Core) BoldnessMultiplier() float64 {
	return c.state.Multiplier()
}

// StateSnapshot captures the full learning state for checkpointing
func (c *Core) StateSnapshot() *domlearning.Snapshot {
	return c.state.Snapshot()
}

// RestoreState loads a checkpointed learning state, typically at startup
func (c *Core) RestoreState(snap *domlearning.Snapshot) {
	c.state.Restore(snap)
	c.log.Infow("learning state restored",
		"features", len(snap.FeatureWeights),
		"boldness", snap.Boldness.GlobalBoldnessMultiplier,
	)
}

func (c *Core) symbolLock(symbol string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.symbolLocks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		c.symbolLocks[symbol] = lock
	}
	return lock
}

// usedFeatures lists the canonical feature names that contributed to the
// evaluation; degraded indicators are excluded so learning only touches
// features that actually informed the decision.
func usedFeatures(snap market.IndicatorSnapshot) []string {
	features := []string{
		domlearning.FeatureTrend,
		domlearning.FeatureMomentum,
		domlearning.FeatureVolatility,
	}
	if !snap.Degraded {
		features = append(features,
			domlearning.FeatureRSI,
			domlearning.FeatureMACD,
			domlearning.FeatureBollinger,
			domlearning.FeatureStochastic,
			domlearning.FeatureEMA,
		)
	}
	if snap.VolumeAvg > 0 {
		features = append(features, domlearning.FeatureVolume)
	}
	return features
}

// patternID labels the market regime the trade entered under; pattern
// statistics accumulate per symbol and regime.
func patternID(cond market.Condition, dir trade.Direction) string {
	return strings.ToLower(fmt.Sprintf("%s_%s_%s", cond.Trend, cond.Volatility, dir))
}
