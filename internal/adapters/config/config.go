package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"helios/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Engine        EngineConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"helios"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"helios"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"helios"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"market"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// EngineConfig groups every tunable of the decision core. Thresholds default to the
// values the system was calibrated with; deployment mode shifts the confidence floor.
type EngineConfig struct {
	Symbols []string `envconfig:"ENGINE_SYMBOLS" default:"BTC-USDT,ETH-USDT,SOL-USDT"`

	// Mode selects a deployment preset: conservative, balanced, aggressive
	Mode string `envconfig:"ENGINE_MODE" default:"balanced"`

	Indicators IndicatorConfig
	Gate       GateConfig
	Learner    LearnerConfig
	Boldness   BoldnessConfig
	Forecast   ForecastConfig
}

type IndicatorConfig struct {
	RSIPeriod       int     `envconfig:"IND_RSI_PERIOD" default:"14"`
	MACDFast        int     `envconfig:"IND_MACD_FAST" default:"12"`
	MACDSlow        int     `envconfig:"IND_MACD_SLOW" default:"26"`
	MACDSignal      int     `envconfig:"IND_MACD_SIGNAL" default:"9"`
	BollingerPeriod int     `envconfig:"IND_BOLLINGER_PERIOD" default:"20"`
	BollingerStdDev float64 `envconfig:"IND_BOLLINGER_STDDEV" default:"2.0"`
	StochKPeriod    int     `envconfig:"IND_STOCH_K_PERIOD" default:"14"`
	StochDPeriod    int     `envconfig:"IND_STOCH_D_PERIOD" default:"3"`
	EMAShort        int     `envconfig:"IND_EMA_SHORT" default:"12"`
	EMAMid          int     `envconfig:"IND_EMA_MID" default:"26"`
	EMALong         int     `envconfig:"IND_EMA_LONG" default:"50"`
	SMAShort        int     `envconfig:"IND_SMA_SHORT" default:"20"`
	SMALong         int     `envconfig:"IND_SMA_LONG" default:"50"`
}

// GateConfig holds the decision gate thresholds. MinConfidence of zero means
// "use the deployment-mode preset".
type GateConfig struct {
	MinConfidence         float64 `envconfig:"GATE_MIN_CONFIDENCE" default:"0"`
	MinPredictedScore     float64 `envconfig:"GATE_MIN_PREDICTED_SCORE" default:"15"`
	MinSuccessProbability float64 `envconfig:"GATE_MIN_SUCCESS_PROBABILITY" default:"55"`
	MinMarketScore        float64 `envconfig:"GATE_MIN_MARKET_SCORE" default:"45"`
	MinEntryTimingScore   float64 `envconfig:"GATE_MIN_ENTRY_TIMING_SCORE" default:"50"`
	MinRiskReward         float64 `envconfig:"GATE_MIN_RISK_REWARD" default:"1.5"`
}

// Deployment-mode confidence presets
const (
	ConfidenceConservative = 70.0
	ConfidenceBalanced     = 60.0
	ConfidenceAggressive   = 45.0
)

// EffectiveMinConfidence resolves the confidence floor for a deployment mode.
func (c GateConfig) EffectiveMinConfidence(mode string) float64 {
	if c.MinConfidence > 0 {
		return c.MinConfidence
	}
	switch mode {
	case "conservative":
		return ConfidenceConservative
	case "aggressive":
		return ConfidenceAggressive
	default:
		return ConfidenceBalanced
	}
}

type LearnerConfig struct {
	LearningRateMultiplier float64 `envconfig:"LEARN_RATE_MULTIPLIER" default:"1.0"`
	// MovementThresholdPct excludes trades whose realized range is below this
	// percentage from every learning update
	MovementThresholdPct float64 `envconfig:"LEARN_MOVEMENT_THRESHOLD_PCT" default:"0.1"`
}

type BoldnessConfig struct {
	HistorySize  int `envconfig:"BOLDNESS_HISTORY_SIZE" default:"50"`
	RecentWindow int `envconfig:"BOLDNESS_RECENT_WINDOW" default:"10"`
	MinSamples   int `envconfig:"BOLDNESS_MIN_SAMPLES" default:"10"`
}

type ForecastConfig struct {
	HorizonMinutes int     `envconfig:"FORECAST_HORIZON_MINUTES" default:"30"`
	MaxMovePercent float64 `envconfig:"FORECAST_MAX_MOVE_PCT" default:"5.0"`
	// DeadBandPercent is the projected move below which the direction is WAIT
	DeadBandPercent float64 `envconfig:"FORECAST_DEAD_BAND_PCT" default:"0.15"`
	NoiseAmplitude  float64 `envconfig:"FORECAST_NOISE_AMPLITUDE" default:"0.05"`

	// Blending weights per labeled strategy; normalized at load
	MomentumWeight      float64 `envconfig:"FORECAST_WEIGHT_MOMENTUM" default:"0.35"`
	MeanReversionWeight float64 `envconfig:"FORECAST_WEIGHT_MEAN_REVERSION" default:"0.25"`
	DriftWeight         float64 `envconfig:"FORECAST_WEIGHT_DRIFT" default:"0.25"`
	RangeWeight         float64 `envconfig:"FORECAST_WEIGHT_RANGE" default:"0.15"`
}

// WorkerConfig contains intervals for all background workers
type WorkerConfig struct {
	EvaluationInterval      time.Duration `envconfig:"WORKER_EVALUATION_INTERVAL" default:"1m"`
	OutcomeMonitorInterval  time.Duration `envconfig:"WORKER_OUTCOME_MONITOR_INTERVAL" default:"30s"`
	ForecastTrackerInterval time.Duration `envconfig:"WORKER_FORECAST_TRACKER_INTERVAL" default:"1m"`
	CheckpointInterval      time.Duration `envconfig:"WORKER_CHECKPOINT_INTERVAL" default:"5m"`

	// EvaluationRate caps symbol evaluations per second
	EvaluationRate float64 `envconfig:"WORKER_EVALUATION_RATE" default:"5"`

	EvaluationEnabled      bool `envconfig:"WORKER_EVALUATION_ENABLED" default:"true"`
	OutcomeMonitorEnabled  bool `envconfig:"WORKER_OUTCOME_MONITOR_ENABLED" default:"true"`
	ForecastTrackerEnabled bool `envconfig:"WORKER_FORECAST_TRACKER_ENABLED" default:"true"`
	CheckpointEnabled      bool `envconfig:"WORKER_CHECKPOINT_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first tries to load .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
