package events

import (
	"context"
	"time"

	"helios/internal/adapters/kafka"
	"helios/internal/metrics"
	"helios/pkg/logger"
)

// DecisionEvent is emitted for every gate outcome
type DecisionEvent struct {
	Symbol           string    `json:"symbol"`
	Direction        string    `json:"direction"`
	Approved         bool      `json:"approved"`
	RejectReason     string    `json:"reject_reason,omitempty"`
	Confidence       float64   `json:"confidence"`
	PredictedScore   float64   `json:"predicted_score"`
	MarketScore      float64   `json:"market_score"`
	EntryTimingScore float64   `json:"entry_timing_score"`
	TradeID          string    `json:"trade_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// LearningEvent is emitted after a closed trade's reward is applied
type LearningEvent struct {
	TradeID      string    `json:"trade_id"`
	Symbol       string    `json:"symbol"`
	Outcome      string    `json:"outcome"`
	Reward       float64   `json:"reward"`
	SuccessScore float64   `json:"success_score"`
	Excluded     bool      `json:"excluded"`
	Timestamp    time.Time `json:"timestamp"`
}

// BoldnessEvent is emitted when a forecast accuracy sample moves the
// boldness state
type BoldnessEvent struct {
	AccuracyPercent  float64   `json:"accuracy_percent"`
	Multiplier       float64   `json:"multiplier"`
	ConvergenceState string    `json:"convergence_state"`
	Timestamp        time.Time `json:"timestamp"`
}

// TradeScoredEvent is emitted when a completed trade receives its hybrid
// success score
type TradeScoredEvent struct {
	TradeID           string    `json:"trade_id"`
	Symbol            string    `json:"symbol"`
	Outcome           string    `json:"outcome"`
	SuccessScore      float64   `json:"success_score"`
	TimeInProfitRatio float64   `json:"time_in_profit_ratio"`
	Timestamp         time.Time `json:"timestamp"`
}

// Publisher publishes events to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishDecision publishes a gate outcome
func (p *Publisher) PublishDecision(ctx context.Context, event DecisionEvent) error {
	topic := kafka.TopicEvaluationRejected
	if event.Approved {
		topic = kafka.TopicTradeApproved
	}
	return p.publish(ctx, topic, event.Symbol, event)
}

// PublishLearning publishes a learning application
func (p *Publisher) PublishLearning(ctx context.Context, event LearningEvent) error {
	return p.publish(ctx, kafka.TopicLearningApplied, event.Symbol, event)
}

// PublishBoldness publishes a boldness adjustment
func (p *Publisher) PublishBoldness(ctx context.Context, event BoldnessEvent) error {
	return p.publish(ctx, kafka.TopicBoldnessAdjusted, "boldness", event)
}

// PublishTradeScored publishes a completed trade's score
func (p *Publisher) PublishTradeScored(ctx context.Context, event TradeScoredEvent) error {
	return p.publish(ctx, kafka.TopicTradeScored, event.Symbol, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	err := p.producer.Publish(ctx, topic, key, event)
	status := "success"
	if err != nil {
		status = "error"
		p.log.Errorf("failed to publish %s event: %v", topic, err)
	}
	metrics.KafkaMessages.WithLabelValues(topic, status).Inc()
	return err
}
