package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"helios/pkg/errors"
)

// DecisionEntry is one evaluation appended to the audit log, approved or
// rejected
type DecisionEntry struct {
	Symbol           string    `ch:"symbol"`
	EvaluatedAt      time.Time `ch:"evaluated_at"`
	Direction        string    `ch:"direction"`
	Approved         bool      `ch:"approved"`
	RejectReason     string    `ch:"reject_reason"`
	Price            float64   `ch:"price"`
	Confidence       float64   `ch:"confidence"`
	ProfitLikelihood float64   `ch:"profit_likelihood"`
	PredictedScore   float64   `ch:"predicted_score"`
	SuccessProb      float64   `ch:"success_probability"`
	MarketScore      float64   `ch:"market_score"`
	EntryTiming      float64   `ch:"entry_timing_score"`
	Trend            string    `ch:"trend"`
	TrendStrength    float64   `ch:"trend_strength"`
	Volatility       string    `ch:"volatility"`
	Momentum         float64   `ch:"momentum"`
	PatternID        string    `ch:"pattern_id"`
	TradeID          string    `ch:"trade_id"`
}

// DecisionHistoryRepository appends evaluations to ClickHouse for audit
// and offline analysis
type DecisionHistoryRepository struct {
	conn driver.Conn
}

// NewDecisionHistoryRepository creates a new decision history repository
func NewDecisionHistoryRepository(conn driver.Conn) *DecisionHistoryRepository {
	return &DecisionHistoryRepository{conn: conn}
}

// Insert appends one decision entry
func (r *DecisionHistoryRepository) Insert(ctx context.Context, entry DecisionEntry) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO decision_history (
			symbol, evaluated_at, direction, approved, reject_reason,
			price, confidence, profit_likelihood, predicted_score,
			success_probability, market_score, entry_timing_score,
			trend, trend_strength, volatility, momentum,
			pattern_id, trade_id
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	if err := batch.AppendStruct(&entry); err != nil {
		return errors.Wrap(err, "failed to append decision")
	}

	return batch.Send()
}

// GetRecent returns the latest decisions for a symbol, newest first
func (r *DecisionHistoryRepository) GetRecent(ctx context.Context, symbol string, limit int) ([]DecisionEntry, error) {
	sql := `
		SELECT symbol, evaluated_at, direction, approved, reject_reason,
		       price, confidence, profit_likelihood, predicted_score,
		       success_probability, market_score, entry_timing_score,
		       trend, trend_strength, volatility, momentum,
		       pattern_id, trade_id
		FROM decision_history
		WHERE symbol = ?
		ORDER BY evaluated_at DESC
		LIMIT ?`

	var entries []DecisionEntry
	if err := r.conn.Select(ctx, &entries, sql, symbol, limit); err != nil {
		return nil, errors.Wrap(err, "failed to query decision history")
	}
	return entries, nil
}
