package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"helios/internal/domain/trade"
	"helios/pkg/errors"
)

// Compile-time check
var _ trade.Repository = (*TradeRepository)(nil)

// TradeRepository implements trade.Repository using sqlx
type TradeRepository struct {
	db DBTX
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db DBTX) *TradeRepository {
	return &TradeRepository{db: db}
}

// tradeRow mirrors trade.Record with driver-friendly column types
type tradeRow struct {
	ID     uuid.UUID `db:"id"`
	Symbol string    `db:"symbol"`

	Direction  string          `db:"direction"`
	EntryPrice decimal.Decimal `db:"entry_price"`
	TPPrice    decimal.Decimal `db:"tp_price"`
	SLPrice    decimal.Decimal `db:"sl_price"`

	Confidence       float64 `db:"confidence"`
	ProfitLikelihood float64 `db:"profit_likelihood"`
	PredictedScore   float64 `db:"predicted_score"`

	UsedFeatures pq.StringArray `db:"used_features"`
	PatternID    string         `db:"pattern_id"`

	CreatedAt time.Time  `db:"created_at"`
	ClosedAt  *time.Time `db:"closed_at"`

	Outcome               sql.NullString `db:"outcome"`
	ProfitLossPercent     float64        `db:"profit_loss_percent"`
	HighestProfit         float64        `db:"highest_profit"`
	LowestLoss            float64        `db:"lowest_loss"`
	MaxFavorableExcursion float64        `db:"max_favorable_excursion"`
	MaxDrawdown           float64        `db:"max_drawdown"`
	SuccessScore          float64        `db:"success_score"`
	TimeInProfitRatio     float64        `db:"time_in_profit_ratio"`
	ActualMovementPercent float64        `db:"actual_movement_percent"`

	ExcludedFromLearning bool `db:"excluded_from_learning"`
	LearningProcessed    bool `db:"learning_processed"`
	AccuracyRecorded     bool `db:"accuracy_recorded"`
}

func toRow(r *trade.Record) tradeRow {
	row := tradeRow{
		ID:                    r.ID,
		Symbol:                r.Symbol,
		Direction:             r.Direction.String(),
		EntryPrice:            r.EntryPrice,
		TPPrice:               r.TPPrice,
		SLPrice:               r.SLPrice,
		Confidence:            r.Confidence,
		ProfitLikelihood:      r.ProfitLikelihood,
		PredictedScore:        r.PredictedScore,
		UsedFeatures:          pq.StringArray(r.UsedFeatures),
		PatternID:             r.PatternID,
		CreatedAt:             r.CreatedAt,
		ClosedAt:              r.ClosedAt,
		ProfitLossPercent:     r.ProfitLossPercent,
		HighestProfit:         r.HighestProfit,
		LowestLoss:            r.LowestLoss,
		MaxFavorableExcursion: r.MaxFavorableExcursion,
		MaxDrawdown:           r.MaxDrawdown,
		SuccessScore:          r.SuccessScore,
		TimeInProfitRatio:     r.TimeInProfitRatio,
		ActualMovementPercent: r.ActualMovementPercent,
		ExcludedFromLearning:  r.ExcludedFromLearning,
		LearningProcessed:     r.LearningProcessed,
		AccuracyRecorded:      r.AccuracyRecorded,
	}
	if r.Outcome != "" {
		row.Outcome = sql.NullString{String: r.Outcome.String(), Valid: true}
	}
	return row
}

func (row tradeRow) toRecord() *trade.Record {
	r := &trade.Record{
		ID:                    row.ID,
		Symbol:                row.Symbol,
		Direction:             trade.Direction(row.Direction),
		EntryPrice:            row.EntryPrice,
		TPPrice:               row.TPPrice,
		SLPrice:               row.SLPrice,
		Confidence:            row.Confidence,
		ProfitLikelihood:      row.ProfitLikelihood,
		PredictedScore:        row.PredictedScore,
		UsedFeatures:          []string(row.UsedFeatures),
		PatternID:             row.PatternID,
		CreatedAt:             row.CreatedAt,
		ClosedAt:              row.ClosedAt,
		ProfitLossPercent:     row.ProfitLossPercent,
		HighestProfit:         row.HighestProfit,
		LowestLoss:            row.LowestLoss,
		MaxFavorableExcursion: row.MaxFavorableExcursion,
		MaxDrawdown:           row.MaxDrawdown,
		SuccessScore:          row.SuccessScore,
		TimeInProfitRatio:     row.TimeInProfitRatio,
		ActualMovementPercent: row.ActualMovementPercent,
		ExcludedFromLearning:  row.ExcludedFromLearning,
		LearningProcessed:     row.LearningProcessed,
		AccuracyRecorded:      row.AccuracyRecorded,
	}
	if row.Outcome.Valid {
		r.Outcome = trade.Outcome(row.Outcome.String)
	}
	return r
}

// Create inserts a new trade
func (r *TradeRepository) Create(ctx context.Context, t *trade.Record) error {
	row := toRow(t)

	query := `
		INSERT INTO trades (
			id, symbol, direction,
			entry_price, tp_price, sl_price,
			confidence, profit_likelihood, predicted_score,
			used_features, pattern_id,
			created_at, closed_at,
			outcome, profit_loss_percent,
			highest_profit, lowest_loss,
			max_favorable_excursion, max_drawdown,
			success_score, time_in_profit_ratio, actual_movement_percent,
			excluded_from_learning, learning_processed, accuracy_recorded
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Symbol, row.Direction,
		row.EntryPrice, row.TPPrice, row.SLPrice,
		row.Confidence, row.ProfitLikelihood, row.PredictedScore,
		row.UsedFeatures, row.PatternID,
		row.CreatedAt, row.ClosedAt,
		row.Outcome, row.ProfitLossPercent,
		row.HighestProfit, row.LowestLoss,
		row.MaxFavorableExcursion, row.MaxDrawdown,
		row.SuccessScore, row.TimeInProfitRatio, row.ActualMovementPercent,
		row.ExcludedFromLearning, row.LearningProcessed, row.AccuracyRecorded,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create trade")
	}
	return nil
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*trade.Record, error) {
	var row tradeRow

	query := `SELECT * FROM trades WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}

	return row.toRecord(), nil
}

// GetOpenBySymbol retrieves the open trade for a symbol
func (r *TradeRepository) GetOpenBySymbol(ctx context.Context, symbol string) (*trade.Record, error) {
	var row tradeRow

	query := `
		SELECT * FROM trades
		WHERE symbol = $1 AND closed_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`

	if err := r.db.GetContext(ctx, &row, query, symbol); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}

	return row.toRecord(), nil
}

// GetClosedUnprocessed retrieves closed trades not yet fed into learning
func (r *TradeRepository) GetClosedUnprocessed(ctx context.Context, limit int) ([]*trade.Record, error) {
	var rows []tradeRow

	query := `
		SELECT * FROM trades
		WHERE closed_at IS NOT NULL AND learning_processed = false
		ORDER BY closed_at ASC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	records := make([]*trade.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

// GetRecentClosed retrieves the most recent closed trades for a symbol
func (r *TradeRepository) GetRecentClosed(ctx context.Context, symbol string, limit int) ([]*trade.Record, error) {
	var rows []tradeRow

	query := `
		SELECT * FROM trades
		WHERE symbol = $1 AND closed_at IS NOT NULL
		ORDER BY closed_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &rows, query, symbol, limit); err != nil {
		return nil, err
	}

	records := make([]*trade.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

// Update persists the mutable outcome fields of a trade
func (r *TradeRepository) Update(ctx context.Context, t *trade.Record) error {
	row := toRow(t)

	query := `
		UPDATE trades SET
			closed_at = $2,
			outcome = $3,
			profit_loss_percent = $4,
			highest_profit = $5,
			lowest_loss = $6,
			max_favorable_excursion = $7,
			max_drawdown = $8,
			success_score = $9,
			time_in_profit_ratio = $10,
			actual_movement_percent = $11,
			excluded_from_learning = $12,
			learning_processed = $13,
			accuracy_recorded = $14
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		row.ID, row.ClosedAt, row.Outcome,
		row.ProfitLossPercent, row.HighestProfit, row.LowestLoss,
		row.MaxFavorableExcursion, row.MaxDrawdown,
		row.SuccessScore, row.TimeInProfitRatio, row.ActualMovementPercent,
		row.ExcludedFromLearning, row.LearningProcessed, row.AccuracyRecorded,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update trade")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// MarkProcessed sets the learning_processed flag; already-processed trades
// are left untouched so double invocations stay idempotent
func (r *TradeRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE trades SET learning_processed = true
		WHERE id = $1 AND learning_processed = false`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
