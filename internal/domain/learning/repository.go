package learning

import "context"

// StateStore persists learning-state checkpoints (Redis) so weights and
// boldness survive a restart. The core never calls it on the hot path.
type StateStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns the latest checkpoint, or ErrNotFound when none exists
	Load(ctx context.Context) (*Snapshot, error)
}
