package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Evaluation metrics
	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_evaluations_total",
			Help: "Total number of symbol evaluations",
		},
		[]string{"symbol", "result"}, // result: approved|rejected|error
	)

	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_rejections_total",
			Help: "Total evaluation rejections by gate reason",
		},
		[]string{"symbol", "reason"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_evaluation_duration_seconds",
			Help:    "End-to-end evaluation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"symbol"},
	)

	PredictedScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_predicted_score",
			Help:    "Predicted success score distribution",
			Buckets: []float64{5, 10, 15, 20, 30, 40, 60, 80, 100},
		},
		[]string{"symbol"},
	)

	// Trade metrics
	TradesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_trades_opened_total",
			Help: "Total number of approved trades",
		},
		[]string{"symbol", "direction"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_trades_closed_total",
			Help: "Total number of closed trades by outcome",
		},
		[]string{"symbol", "outcome"},
	)

	TradeSuccessScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_trade_success_score",
			Help:    "Hybrid success score of completed trades",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"symbol"},
	)

	// Learning metrics
	LearningApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_learning_applied_total",
			Help: "Total learning applications",
		},
		[]string{"symbol", "status"}, // status: applied|excluded|duplicate
	)

	FeatureWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_feature_weight",
			Help: "Current adaptive weight per indicator feature",
		},
		[]string{"feature"},
	)

	BoldnessMultiplier = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_boldness_multiplier",
			Help: "Current global boldness multiplier",
		},
	)

	ForecastAccuracy = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_forecast_accuracy_percent",
			Help:    "Realized forecast accuracy distribution",
			Buckets: []float64{10, 25, 50, 65, 75, 85, 95, 100},
		},
	)

	// Infrastructure metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(Evaluations)
	prometheus.MustRegister(Rejections)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(PredictedScore)

	prometheus.MustRegister(TradesOpened)
	prometheus.MustRegister(TradesClosed)
	prometheus.MustRegister(TradeSuccessScore)

	prometheus.MustRegister(LearningApplied)
	prometheus.MustRegister(FeatureWeight)
	prometheus.MustRegister(BoldnessMultiplier)
	prometheus.MustRegister(ForecastAccuracy)

	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordEvaluation records one symbol evaluation
func RecordEvaluation(symbol string, approved bool, rejectReason string, duration time.Duration) {
	result := "approved"
	if !approved {
		result = "rejected"
		Rejections.WithLabelValues(symbol, rejectReason).Inc()
	}
	Evaluations.WithLabelValues(symbol, result).Inc()
	EvaluationDuration.WithLabelValues(symbol).Observe(duration.Seconds())
}
