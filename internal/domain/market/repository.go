package market

import (
	"context"
	"time"
)

// Repository defines the interface for market data access (ClickHouse)
type Repository interface {
	InsertOHLCV(ctx context.Context, candles []OHLCV) error
	GetOHLCV(ctx context.Context, query OHLCVQuery) (Window, error)
	GetLatestOHLCV(ctx context.Context, symbol, timeframe string, limit int) (Window, error)

	// GetPricePath returns per-minute close prices between two instants,
	// oldest first; used to score a completed trade.
	GetPricePath(ctx context.Context, symbol string, from, to time.Time) ([]float64, error)

	// GetLastPrice returns the most recent close for a symbol
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
}
