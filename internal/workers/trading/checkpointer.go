package trading

import (
	"context"
	"time"

	"helios/internal/domain/learning"
	"helios/internal/engine"
	"helios/internal/metrics"
	"helios/internal/workers"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Checkpointer periodically snapshots the learning state so adaptive
// weights and boldness survive a restart.
type Checkpointer struct {
	*workers.BaseWorker
	core  *engine.Core
	store learning.StateStore
	log   *logger.Logger
}

// NewCheckpointer creates a new state checkpointer worker
func NewCheckpointer(
	core *engine.Core,
	store learning.StateStore,
	interval time.Duration,
	enabled bool,
) *Checkpointer {
	return &Checkpointer{
		BaseWorker: workers.NewBaseWorker("checkpointer", interval, enabled),
		core:       core,
		store:      store,
		log:        logger.Get().With("worker", "checkpointer"),
	}
}

// Run saves one checkpoint and refreshes the learning gauges
func (w *Checkpointer) Run(ctx context.Context) error {
	start := time.Now()

	snap := w.core.StateSnapshot()
	if err := w.store.Save(ctx, snap); err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "failed to save learning state")
	}

	for name, fw := range snap.FeatureWeights {
		metrics.FeatureWeight.WithLabelValues(name).Set(fw.Weight)
	}
	metrics.BoldnessMultiplier.Set(snap.Boldness.GlobalBoldnessMultiplier)

	w.log.Debugf("checkpointed learning state: %d features, boldness %.2f",
		len(snap.FeatureWeights), snap.Boldness.GlobalBoldnessMultiplier)

	w.RecordRun(time.Since(start))
	return nil
}
