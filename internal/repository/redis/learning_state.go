package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"helios/internal/adapters/redis"
	"helios/internal/domain/learning"
	"helios/pkg/errors"
)

const learningStateKey = "learning:state"

// Compile-time check
var _ learning.StateStore = (*LearningStateStore)(nil)

// LearningStateStore checkpoints the learning state in Redis so adaptive
// weights and boldness survive a restart
type LearningStateStore struct {
	client *redis.Client
}

// NewLearningStateStore creates a new learning state store
func NewLearningStateStore(client *redis.Client) *LearningStateStore {
	return &LearningStateStore{client: client}
}

// Save overwrites the checkpoint. No TTL: the latest state is always kept.
func (s *LearningStateStore) Save(ctx context.Context, snap *learning.Snapshot) error {
	if snap == nil {
		return errors.ErrInvalidInput
	}
	return s.client.Set(ctx, learningStateKey, snap, 0)
}

// Load returns the latest checkpoint, or ErrNotFound when none exists
func (s *LearningStateStore) Load(ctx context.Context) (*learning.Snapshot, error) {
	var snap learning.Snapshot
	if err := s.client.Get(ctx, learningStateKey, &snap); err != nil {
		if err == goredis.Nil {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load learning state")
	}
	return &snap, nil
}
