package trading

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/internal/engine"
	"helios/internal/events"
	"helios/internal/metrics"
	redisrepo "helios/internal/repository/redis"
	"helios/internal/workers"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// ForecastTracker grades due forecasts against the realized price and
// feeds the accuracy into the boldness feedback loop.
type ForecastTracker struct {
	*workers.BaseWorker
	core         *engine.Core
	marketRepo   market.Repository
	tradeRepo    trade.Repository
	forecastRepo *redisrepo.ForecastRepository
	publisher    *events.Publisher
	log          *logger.Logger
}

// NewForecastTracker creates a new forecast tracker worker
func NewForecastTracker(
	core *engine.Core,
	marketRepo market.Repository,
	tradeRepo trade.Repository,
	forecastRepo *redisrepo.ForecastRepository,
	publisher *events.Publisher,
	interval time.Duration,
	enabled bool,
) *ForecastTracker {
	return &ForecastTracker{
		BaseWorker:   workers.NewBaseWorker("forecast_tracker", interval, enabled),
		core:         core,
		marketRepo:   marketRepo,
		tradeRepo:    tradeRepo,
		forecastRepo: forecastRepo,
		publisher:    publisher,
		log:          logger.Get().With("worker", "forecast_tracker"),
	}
}

// Run grades every forecast whose horizon has elapsed
func (w *ForecastTracker) Run(ctx context.Context) error {
	start := time.Now()

	due, err := w.forecastRepo.GetDue(ctx, time.Now().UTC())
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "failed to load due forecasts")
	}

	for _, pf := range due {
		if err := w.gradeForecast(ctx, pf); err != nil {
			w.log.Errorf("failed to grade forecast for %s: %v", pf.Forecast.Symbol, err)
			continue
		}
		if err := w.forecastRepo.Delete(ctx, pf); err != nil {
			w.log.Errorf("failed to delete graded forecast for %s: %v", pf.Forecast.Symbol, err)
		}
	}

	if len(due) > 0 {
		w.log.Infof("graded %d forecasts", len(due))
	}
	w.RecordRun(time.Since(start))
	return nil
}

func (w *ForecastTracker) gradeForecast(ctx context.Context, pf redisrepo.PendingForecast) error {
	realized, err := w.marketRepo.GetLastPrice(ctx, pf.Forecast.Symbol)
	if err != nil {
		return errors.Wrap(err, "failed to load realized price")
	}

	accuracy := forecastAccuracy(pf.Forecast.CurrentPrice, pf.Forecast.PredictedPrice, realized)

	var rec *trade.Record
	if pf.TradeID != "" {
		id, err := uuid.Parse(pf.TradeID)
		if err == nil {
			rec, err = w.tradeRepo.GetByID(ctx, id)
			if err != nil && !errors.Is(err, errors.ErrNotFound) {
				return errors.Wrap(err, "failed to load trade")
			}
		}
	}

	if err := w.core.RecordForecastAccuracy(accuracy, rec); err != nil {
		if errors.Is(err, errors.ErrAlreadyProcessed) {
			return nil
		}
		return err
	}

	if rec != nil {
		if err := w.tradeRepo.Update(ctx, rec); err != nil {
			w.log.Errorf("failed to persist accuracy flag for %s: %v", rec.ID, err)
		}
	}

	metrics.ForecastAccuracy.Observe(accuracy)
	metrics.BoldnessMultiplier.Set(w.core.BoldnessMultiplier())

	b := w.core.BoldnessMetrics()
	if err := w.publisher.PublishBoldness(ctx, events.BoldnessEvent{
		AccuracyPercent:  accuracy,
		Multiplier:       b.GlobalBoldnessMultiplier,
		ConvergenceState: b.ConvergenceState.String(),
		Timestamp:        time.Now().UTC(),
	}); err != nil {
		w.log.Errorf("failed to publish boldness event: %v", err)
	}

	return nil
}

// minMoveFloor keeps near-zero predicted moves from inflating the
// relative error
const minMoveFloor = 0.1

// forecastAccuracy grades the predicted move against the realized move as
// 100 minus the capped relative error, in percent. Comparing moves rather
// than raw prices keeps small absolute price errors from reading as
// near-perfect forecasts.
func forecastAccuracy(base, predicted, realized float64) float64 {
	if base <= 0 || predicted <= 0 {
		return 0
	}
	predictedMove := (predicted - base) / base * 100
	realizedMove := (realized - base) / base * 100

	denom := math.Abs(predictedMove)
	if denom < minMoveFloor {
		denom = minMoveFloor
	}

	relErr := math.Abs(realizedMove-predictedMove) / denom * 100
	if relErr > 100 {
		relErr = 100
	}
	return 100 - relErr
}
