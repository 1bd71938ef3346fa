package kafka

// Topic definitions for Kafka event streaming
const (
	// Decision events
	TopicTradeApproved      = "decisions.approved"
	TopicEvaluationRejected = "decisions.rejected"

	// Learning events
	TopicLearningApplied  = "learning.applied"
	TopicBoldnessAdjusted = "learning.boldness"

	// Trade lifecycle
	TopicTradeClosed = "trades.closed"
	TopicTradeScored = "trades.scored"
)
