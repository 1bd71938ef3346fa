package trading

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"helios/internal/domain/market"
	"helios/internal/domain/trade"
	"helios/internal/engine"
	"helios/internal/events"
	"helios/internal/metrics"
	"helios/internal/repository/clickhouse"
	redisrepo "helios/internal/repository/redis"
	"helios/internal/workers"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// evaluationWindowSize is how many one-minute candles each evaluation
// loads; enough for the slowest indicator period plus warmup
const evaluationWindowSize = 200

const evaluationTimeframe = "1m"

// EvaluationWorker runs the decision pipeline for every configured symbol
// each interval, persists approved trades and stores their forecasts for
// later accuracy grading.
type EvaluationWorker struct {
	*workers.BaseWorker
	core         *engine.Core
	marketRepo   market.Repository
	tradeRepo    trade.Repository
	forecastRepo *redisrepo.ForecastRepository
	decisionRepo *clickhouse.DecisionHistoryRepository
	publisher    *events.Publisher
	symbols      []string
	limiter      *rate.Limiter
	log          *logger.Logger
}

// NewEvaluationWorker creates a new evaluation worker. evalsPerSecond
// paces symbol evaluations so a long symbol list cannot saturate the
// data stores.
func NewEvaluationWorker(
	core *engine.Core,
	marketRepo market.Repository,
	tradeRepo trade.Repository,
	forecastRepo *redisrepo.ForecastRepository,
	decisionRepo *clickhouse.DecisionHistoryRepository,
	publisher *events.Publisher,
	symbols []string,
	evalsPerSecond float64,
	interval time.Duration,
	enabled bool,
) *EvaluationWorker {
	if evalsPerSecond <= 0 {
		evalsPerSecond = 5
	}
	return &EvaluationWorker{
		BaseWorker:   workers.NewBaseWorker("evaluation", interval, enabled),
		core:         core,
		marketRepo:   marketRepo,
		tradeRepo:    tradeRepo,
		forecastRepo: forecastRepo,
		decisionRepo: decisionRepo,
		publisher:    publisher,
		symbols:      symbols,
		limiter:      rate.NewLimiter(rate.Limit(evalsPerSecond), 1),
		log:          logger.Get().With("worker", "evaluation"),
	}
}

// Run evaluates every configured symbol once
func (w *EvaluationWorker) Run(ctx context.Context) error {
	start := time.Now()

	var approved, rejected, failed int
	for _, symbol := range w.symbols {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}

		ok, err := w.evaluateSymbol(ctx, symbol)
		switch {
		case err != nil:
			failed++
			w.log.Errorf("evaluation failed for %s: %v", symbol, err)
		case ok:
			approved++
		default:
			rejected++
		}
	}

	w.log.Infof("evaluated %s symbols: %d approved, %d rejected, %d failed",
		humanize.Comma(int64(len(w.symbols))), approved, rejected, failed)

	if failed == len(w.symbols) && failed > 0 {
		err := errors.Newf("all %d evaluations failed", failed)
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	return nil
}

func (w *EvaluationWorker) evaluateSymbol(ctx context.Context, symbol string) (approved bool, err error) {
	evalStart := time.Now()

	window, err := w.marketRepo.GetLatestOHLCV(ctx, symbol, evaluationTimeframe, evaluationWindowSize)
	if err != nil {
		return false, errors.Wrapf(err, "failed to load window for %s", symbol)
	}

	hasOpen := true
	if _, err := w.tradeRepo.GetOpenBySymbol(ctx, symbol); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return false, errors.Wrapf(err, "failed to check open trade for %s", symbol)
		}
		hasOpen = false
	}

	eval, err := w.core.Evaluate(ctx, symbol, window, hasOpen)
	if err != nil {
		return false, err
	}

	metrics.RecordEvaluation(symbol, eval.Gate.Approved, eval.Gate.RejectReason, time.Since(evalStart))
	metrics.PredictedScore.WithLabelValues(symbol).Observe(eval.Prediction.PredictedSuccessScore)

	tradeID := ""
	if eval.Gate.Approved {
		rec := eval.Gate.Record
		if err := w.tradeRepo.Create(ctx, rec); err != nil {
			return false, errors.Wrapf(err, "failed to persist trade for %s", symbol)
		}
		tradeID = rec.ID.String()
		metrics.TradesOpened.WithLabelValues(symbol, rec.Direction.String()).Inc()

		if err := w.forecastRepo.Save(ctx, redisrepo.PendingForecast{
			Forecast: eval.Forecast,
			TradeID:  tradeID,
		}); err != nil {
			w.log.Errorf("failed to store forecast for %s: %v", symbol, err)
		}
	}

	w.appendDecision(ctx, eval, tradeID)

	if err := w.publisher.PublishDecision(ctx, events.DecisionEvent{
		Symbol:           symbol,
		Direction:        eval.Forecast.Direction.String(),
		Approved:         eval.Gate.Approved,
		RejectReason:     eval.Gate.RejectReason,
		Confidence:       eval.Forecast.Confidence,
		PredictedScore:   eval.Prediction.PredictedSuccessScore,
		MarketScore:      eval.Condition.MarketScore,
		EntryTimingScore: eval.Gate.EntryTimingScore,
		TradeID:          tradeID,
		Timestamp:        eval.EvaluatedAt,
	}); err != nil {
		w.log.Errorf("failed to publish decision for %s: %v", symbol, err)
	}

	return eval.Gate.Approved, nil
}

// appendDecision writes the audit entry; audit failures never fail the
// evaluation
func (w *EvaluationWorker) appendDecision(ctx context.Context, eval *engine.Evaluation, tradeID string) {
	entry := clickhouse.DecisionEntry{
		Symbol:           eval.Symbol,
		EvaluatedAt:      eval.EvaluatedAt,
		Direction:        eval.Forecast.Direction.String(),
		Approved:         eval.Gate.Approved,
		RejectReason:     eval.Gate.RejectReason,
		Price:            eval.Snapshot.Price,
		Confidence:       eval.Forecast.Confidence,
		ProfitLikelihood: eval.Forecast.ProfitLikelihood,
		PredictedScore:   eval.Prediction.PredictedSuccessScore,
		SuccessProb:      eval.Prediction.SuccessProbability,
		MarketScore:      eval.Condition.MarketScore,
		EntryTiming:      eval.Gate.EntryTimingScore,
		Trend:            eval.Condition.Trend.String(),
		TrendStrength:    eval.Condition.TrendStrength,
		Volatility:       eval.Condition.Volatility.String(),
		Momentum:         eval.Condition.Momentum,
		PatternID:        patternOf(eval),
		TradeID:          tradeID,
	}

	if err := w.decisionRepo.Insert(ctx, entry); err != nil {
		w.log.Errorf("failed to append decision history for %s: %v", eval.Symbol, err)
	}
}

func patternOf(eval *engine.Evaluation) string {
	if eval.Gate.Record != nil {
		return eval.Gate.Record.PatternID
	}
	return ""
}
