package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"helios/internal/domain/market"
	"helios/pkg/errors"
)

// Compile-time check
var _ market.Repository = (*MarketDataRepository)(nil)

// MarketDataRepository implements market.Repository using ClickHouse
type MarketDataRepository struct {
	conn driver.Conn
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(conn driver.Conn) *MarketDataRepository {
	return &MarketDataRepository{conn: conn}
}

// InsertOHLCV inserts OHLCV candles in batch
func (r *MarketDataRepository) InsertOHLCV(ctx context.Context, candles []market.OHLCV) error {
	if len(candles) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO ohlcv (
			symbol, timeframe, open_time, close_time,
			open, high, low, close, volume, quote_volume, trades, is_closed
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, c := range candles {
		err := batch.Append(
			c.Symbol, c.Timeframe, c.OpenTime, c.CloseTime,
			c.Open, c.High, c.Low, c.Close,
			c.Volume, c.QuoteVolume, c.Trades, c.IsClosed,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append candle")
		}
	}

	return batch.Send()
}

// GetOHLCV retrieves candles matching the query, oldest first
func (r *MarketDataRepository) GetOHLCV(ctx context.Context, query market.OHLCVQuery) (market.Window, error) {
	sql := `
		SELECT symbol, timeframe, open_time, close_time,
		       open, high, low, close, volume, quote_volume, trades, is_closed
		FROM ohlcv
		WHERE symbol = ? AND timeframe = ?`

	args := []interface{}{query.Symbol, query.Timeframe}

	if !query.StartTime.IsZero() {
		sql += ` AND open_time >= ?`
		args = append(args, query.StartTime)
	}
	if !query.EndTime.IsZero() {
		sql += ` AND open_time <= ?`
		args = append(args, query.EndTime)
	}

	sql += ` ORDER BY open_time ASC`

	if query.Limit > 0 {
		sql += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	var candles []market.OHLCV
	if err := r.conn.Select(ctx, &candles, sql, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query ohlcv")
	}

	return market.Window(candles), nil
}

// GetLatestOHLCV retrieves the most recent candles for a symbol, returned
// oldest first so the result is directly usable as an evaluation window
func (r *MarketDataRepository) GetLatestOHLCV(ctx context.Context, symbol, timeframe string, limit int) (market.Window, error) {
	sql := `
		SELECT symbol, timeframe, open_time, close_time,
		       open, high, low, close, volume, quote_volume, trades, is_closed
		FROM ohlcv
		WHERE symbol = ? AND timeframe = ?
		ORDER BY open_time DESC
		LIMIT ?`

	var candles []market.OHLCV
	if err := r.conn.Select(ctx, &candles, sql, symbol, timeframe, limit); err != nil {
		return nil, errors.Wrap(err, "failed to query latest ohlcv")
	}

	// Reverse into chronological order
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return market.Window(candles), nil
}

// GetPricePath returns per-minute close prices between two instants,
// oldest first
func (r *MarketDataRepository) GetPricePath(ctx context.Context, symbol string, from, to time.Time) ([]float64, error) {
	sql := `
		SELECT close
		FROM ohlcv
		WHERE symbol = ? AND timeframe = '1m'
		  AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC`

	var rows []struct {
		Close float64 `ch:"close"`
	}
	if err := r.conn.Select(ctx, &rows, sql, symbol, from, to); err != nil {
		return nil, errors.Wrap(err, "failed to query price path")
	}

	path := make([]float64, len(rows))
	for i, row := range rows {
		path[i] = row.Close
	}
	return path, nil
}

// GetLastPrice returns the most recent close for a symbol
func (r *MarketDataRepository) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	sql := `
		SELECT close
		FROM ohlcv
		WHERE symbol = ? AND timeframe = '1m'
		ORDER BY open_time DESC
		LIMIT 1`

	var rows []struct {
		Close float64 `ch:"close"`
	}
	if err := r.conn.Select(ctx, &rows, sql, symbol); err != nil {
		return 0, errors.Wrap(err, "failed to query last price")
	}
	if len(rows) == 0 {
		return 0, errors.ErrNotFound
	}
	return rows[0].Close, nil
}
