package trading

import (
	"context"
	"time"

	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/internal/engine"
	"helios/internal/events"
	"helios/internal/metrics"
	"helios/internal/workers"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// outcomeBatchSize bounds how many closed trades one iteration processes
const outcomeBatchSize = 50

// OutcomeMonitor grades closed trades against their intra-trade price
// path and feeds the realized reward into the learning loop.
type OutcomeMonitor struct {
	*workers.BaseWorker
	core       *engine.Core
	marketRepo market.Repository
	tradeRepo  trade.Repository
	publisher  *events.Publisher
	log        *logger.Logger
}

// NewOutcomeMonitor creates a new outcome monitor worker
func NewOutcomeMonitor(
	core *engine.Core,
	marketRepo market.Repository,
	tradeRepo trade.Repository,
	publisher *events.Publisher,
	interval time.Duration,
	enabled bool,
) *OutcomeMonitor {
	return &OutcomeMonitor{
		BaseWorker: workers.NewBaseWorker("outcome_monitor", interval, enabled),
		core:       core,
		marketRepo: marketRepo,
		tradeRepo:  tradeRepo,
		publisher:  publisher,
		log:        logger.Get().With("worker", "outcome_monitor"),
	}
}

// Run scores and learns from one batch of closed, unprocessed trades
func (w *OutcomeMonitor) Run(ctx context.Context) error {
	start := time.Now()

	trades, err := w.tradeRepo.GetClosedUnprocessed(ctx, outcomeBatchSize)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "failed to load unprocessed trades")
	}

	if len(trades) == 0 {
		w.RecordRun(time.Since(start))
		return nil
	}

	var processed int
	for _, t := range trades {
		if err := w.processTrade(ctx, t); err != nil {
			w.log.Errorf("failed to process trade %s: %v", t.ID, err)
			continue
		}
		processed++
	}

	w.log.Infof("processed %d/%d closed trades", processed, len(trades))
	w.RecordRun(time.Since(start))
	return nil
}

func (w *OutcomeMonitor) processTrade(ctx context.Context, t *trade.Record) error {
	path, err := w.marketRepo.GetPricePath(ctx, t.Symbol, t.CreatedAt, *t.ClosedAt)
	if err != nil {
		return errors.Wrap(err, "failed to load price path")
	}

	score, err := w.core.ScoreCompletedTrade(t, path)
	if err != nil {
		return errors.Wrap(err, "failed to score trade")
	}

	reward := w.core.Reward(t)
	if err := w.core.ApplyLearning(t, reward); err != nil && !errors.Is(err, errors.ErrAlreadyProcessed) {
		return errors.Wrap(err, "failed to apply learning")
	}

	if err := w.tradeRepo.Update(ctx, t); err != nil {
		return errors.Wrap(err, "failed to persist trade")
	}

	metrics.TradesClosed.WithLabelValues(t.Symbol, t.Outcome.String()).Inc()
	metrics.TradeSuccessScore.WithLabelValues(t.Symbol).Observe(score.FinalScore)

	status := "applied"
	if t.ExcludedFromLearning {
		status = "excluded"
	}
	metrics.LearningApplied.WithLabelValues(t.Symbol, status).Inc()

	now := time.Now().UTC()
	if err := w.publisher.PublishTradeScored(ctx, events.TradeScoredEvent{
		TradeID:           t.ID.String(),
		Symbol:            t.Symbol,
		Outcome:           t.Outcome.String(),
		SuccessScore:      score.FinalScore,
		TimeInProfitRatio: score.TimeInProfitRatio,
		Timestamp:         now,
	}); err != nil {
		w.log.Errorf("failed to publish trade scored event for %s: %v", t.ID, err)
	}

	if err := w.publisher.PublishLearning(ctx, events.LearningEvent{
		TradeID:      t.ID.String(),
		Symbol:       t.Symbol,
		Outcome:      t.Outcome.String(),
		Reward:       reward,
		SuccessScore: score.FinalScore,
		Excluded:     t.ExcludedFromLearning,
		Timestamp:    now,
	}); err != nil {
		w.log.Errorf("failed to publish learning event for %s: %v", t.ID, err)
	}

	return nil
}
