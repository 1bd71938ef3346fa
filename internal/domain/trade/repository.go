package trade

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines trade persistence (PostgreSQL). The decision core never
// touches it directly; workers do.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// GetOpenBySymbol returns the open trade for a symbol, or ErrNotFound
	GetOpenBySymbol(ctx context.Context, symbol string) (*Record, error)

	// GetClosedUnprocessed returns closed trades whose learning reward has
	// not been applied yet
	GetClosedUnprocessed(ctx context.Context, limit int) ([]*Record, error)

	// GetRecentClosed returns the most recent closed trades for a symbol,
	// newest first
	GetRecentClosed(ctx context.Context, symbol string, limit int) ([]*Record, error)

	Update(ctx context.Context, r *Record) error

	// MarkProcessed sets the learning_processed flag; the update is a no-op
	// if the flag is already set, so double invocations stay idempotent
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}
