package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"helios/internal/adapters/clickhouse"
	"helios/internal/adapters/config"
	"helios/internal/adapters/errors/noop"
	"helios/internal/adapters/errors/sentry"
	"helios/internal/adapters/kafka"
	"helios/internal/adapters/postgres"
	"helios/internal/adapters/redis"
	"helios/internal/engine"
	"helios/internal/engine/forecast"
	"helios/internal/engine/gate"
	"helios/internal/engine/indicators"
	englearning "helios/internal/engine/learning"
	"helios/internal/events"
	"helios/internal/metrics"
	chrepo "helios/internal/repository/clickhouse"
	pgrepo "helios/internal/repository/postgres"
	redisrepo "helios/internal/repository/redis"
	"helios/internal/workers"
	"helios/internal/workers/trading"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	db := initDatabases(cfg, log)
	defer db.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()
	publisher := events.NewPublisher(producer)

	tradeRepo := pgrepo.NewTradeRepository(db.Postgres.DB())
	marketRepo := chrepo.NewMarketDataRepository(db.ClickHouse.Conn())
	decisionRepo := chrepo.NewDecisionHistoryRepository(db.ClickHouse.Conn())
	forecastRepo := redisrepo.NewForecastRepository(db.Redis)
	stateStore := redisrepo.NewLearningStateStore(db.Redis)

	core := initCore(cfg, stateStore, log)

	scheduler := initWorkers(cfg, core, marketRepo, tradeRepo, forecastRepo, decisionRepo, stateStore, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics.Addr, core, log)
	}

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, errorTracker, log)
}

// Database groups the storage clients
type Database struct {
	Postgres   *postgres.Client
	ClickHouse *clickhouse.Client
	Redis      *redis.Client
}

// Close closes all connections
func (d *Database) Close() {
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.ClickHouse != nil {
		d.ClickHouse.Close()
	}
	if d.Redis != nil {
		d.Redis.Close()
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initDatabases initializes PostgreSQL, ClickHouse and Redis connections
func initDatabases(cfg *config.Config, log *logger.Logger) *Database {
	log.Info("Initializing databases...")

	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Info("Databases initialized")
	return &Database{
		Postgres:   pgClient,
		ClickHouse: chClient,
		Redis:      redisClient,
	}
}

// initCore assembles the decision pipeline and restores the learning
// state checkpoint if one exists
func initCore(cfg *config.Config, stateStore *redisrepo.LearningStateStore, log *logger.Logger) *engine.Core {
	coreCfg := engine.Config{
		Indicators: indicators.Config{
			RSIPeriod:       cfg.Engine.Indicators.RSIPeriod,
			MACDFast:        cfg.Engine.Indicators.MACDFast,
			MACDSlow:        cfg.Engine.Indicators.MACDSlow,
			MACDSignal:      cfg.Engine.Indicators.MACDSignal,
			BollingerPeriod: cfg.Engine.Indicators.BollingerPeriod,
			BollingerStdDev: cfg.Engine.Indicators.BollingerStdDev,
			StochKPeriod:    cfg.Engine.Indicators.StochKPeriod,
			StochDPeriod:    cfg.Engine.Indicators.StochDPeriod,
			EMAShort:        cfg.Engine.Indicators.EMAShort,
			EMAMid:          cfg.Engine.Indicators.EMAMid,
			EMALong:         cfg.Engine.Indicators.EMALong,
			SMAShort:        cfg.Engine.Indicators.SMAShort,
			SMALong:         cfg.Engine.Indicators.SMALong,
		},
		Gate: gate.Config{
			MinConfidence:         cfg.Engine.Gate.EffectiveMinConfidence(cfg.Engine.Mode),
			MinPredictedScore:     cfg.Engine.Gate.MinPredictedScore,
			MinSuccessProbability: cfg.Engine.Gate.MinSuccessProbability,
			MinMarketScore:        cfg.Engine.Gate.MinMarketScore,
			MinEntryTimingScore:   cfg.Engine.Gate.MinEntryTimingScore,
			MinRiskReward:         cfg.Engine.Gate.MinRiskReward,
		},
		Learner: englearning.LearnerConfig{
			LearningRateMultiplier: cfg.Engine.Learner.LearningRateMultiplier,
		},
		MovementThresholdPct: cfg.Engine.Learner.MovementThresholdPct,
		Boldness: englearning.BoldnessManagerConfig{
			HistoryCap:   cfg.Engine.Boldness.HistorySize,
			RecentWindow: cfg.Engine.Boldness.RecentWindow,
			MinSamples:   cfg.Engine.Boldness.MinSamples,
		},
		Forecast: forecast.Config{
			HorizonMinutes:      cfg.Engine.Forecast.HorizonMinutes,
			MaxMovePercent:      cfg.Engine.Forecast.MaxMovePercent,
			DeadBandPercent:     cfg.Engine.Forecast.DeadBandPercent,
			NoiseAmplitude:      cfg.Engine.Forecast.NoiseAmplitude,
			MomentumWeight:      cfg.Engine.Forecast.MomentumWeight,
			MeanReversionWeight: cfg.Engine.Forecast.MeanReversionWeight,
			DriftWeight:         cfg.Engine.Forecast.DriftWeight,
			RangeWeight:         cfg.Engine.Forecast.RangeWeight,
		},
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	core := engine.NewCore(coreCfg, rnd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := stateStore.Load(ctx)
	switch {
	case err == nil:
		core.RestoreState(snap)
	case errors.Is(err, errors.ErrNotFound):
		log.Info("No learning state checkpoint found, starting fresh")
	default:
		log.Warnf("Failed to load learning state: %v", err)
	}

	return core
}

// initWorkers registers all background workers
func initWorkers(
	cfg *config.Config,
	core *engine.Core,
	marketRepo *chrepo.MarketDataRepository,
	tradeRepo *pgrepo.TradeRepository,
	forecastRepo *redisrepo.ForecastRepository,
	decisionRepo *chrepo.DecisionHistoryRepository,
	stateStore *redisrepo.LearningStateStore,
	publisher *events.Publisher,
) *workers.Scheduler {
	scheduler := workers.NewScheduler()

	scheduler.RegisterWorker(trading.NewEvaluationWorker(
		core, marketRepo, tradeRepo, forecastRepo, decisionRepo, publisher,
		cfg.Engine.Symbols,
		cfg.Workers.EvaluationRate,
		cfg.Workers.EvaluationInterval,
		cfg.Workers.EvaluationEnabled,
	))

	scheduler.RegisterWorker(trading.NewOutcomeMonitor(
		core, marketRepo, tradeRepo, publisher,
		cfg.Workers.OutcomeMonitorInterval,
		cfg.Workers.OutcomeMonitorEnabled,
	))

	scheduler.RegisterWorker(trading.NewForecastTracker(
		core, marketRepo, tradeRepo, forecastRepo, publisher,
		cfg.Workers.ForecastTrackerInterval,
		cfg.Workers.ForecastTrackerEnabled,
	))

	scheduler.RegisterWorker(trading.NewCheckpointer(
		core,
		stateStore,
		cfg.Workers.CheckpointInterval,
		cfg.Workers.CheckpointEnabled,
	))

	return scheduler
}

// startMetricsServer serves /metrics on its own listener
func startMetricsServer(addr string, core *engine.Core, log *logger.Logger) {
	if err := prometheus.Register(metrics.NewLearningCollector(core)); err != nil {
		log.Warnf("Failed to register learning collector: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	go func() {
		log.Infof("Metrics server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
