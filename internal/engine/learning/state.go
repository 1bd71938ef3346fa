package learning

import (
	"sync"
	"time"

	"helios/internal/domain/learning"
)

// State is the explicit aggregate of all process-wide mutable learning
// state: feature weights, per-symbol correlation patterns, boldness metrics
// and the per-symbol trade history the predictor consults. One instance is
// constructed at startup and injected into every consumer; all mutation
// goes through the single writer lock, so readers may see a slightly stale
// snapshot but never a partially updated weight.
type State struct {
	mu sync.RWMutex

	features  map[string]learning.FeatureWeight
	patterns  map[string]map[string]learning.CorrelationPattern // symbol -> patternID
	histories map[string]learning.SymbolHistory
	boldness  learning.BoldnessMetrics

	// accuracyHistory is the bounded window of forecast accuracy
	// percentages, newest last
	accuracyHistory []float64
	historySize     int
}

// NewState creates learning state with neutral weights and unit boldness
func NewState(historySize int) *State {
	if historySize <= 0 {
		historySize = 50
	}
	return &State{
		features:  make(map[string]learning.FeatureWeight),
		patterns:  make(map[string]map[string]learning.CorrelationPattern),
		histories: make(map[string]learning.SymbolHistory),
		boldness: learning.BoldnessMetrics{
			GlobalBoldnessMultiplier: learning.BoldnessFloor,
			ConvergenceState:         learning.StateLearning,
		},
		accuracyHistory: make([]float64, 0, historySize),
		historySize:     historySize,
	}
}

// FeatureWeights returns a copy of the feature weight table
func (s *State) FeatureWeights() map[string]learning.FeatureWeight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]learning.FeatureWeight, len(s.features))
	for k, v := range s.features {
		out[k] = v
	}
	return out
}

// FeatureWeight returns the weight for one feature, defaulting to 1.0 for
// features never updated.
func (s *State) FeatureWeight(name string) learning.FeatureWeight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fw, ok := s.features[name]; ok {
		return fw
	}
	return learning.FeatureWeight{Weight: 1.0}
}

// Patterns returns a copy of the correlation patterns for a symbol
func (s *State) Patterns(symbol string) map[string]learning.CorrelationPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]learning.CorrelationPattern, len(s.patterns[symbol]))
	for k, v := range s.patterns[symbol] {
		out[k] = v
	}
	return out
}

// Boldness returns a copy of the boldness metrics
func (s *State) Boldness() learning.BoldnessMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boldness
}

// Multiplier returns the current global boldness multiplier
func (s *State) Multiplier() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boldness.GlobalBoldnessMultiplier
}

// History returns the trade history aggregate for a symbol
func (s *State) History(symbol string) learning.SymbolHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.histories[symbol]
}

// Snapshot returns a deep copy of the whole state for checkpointing
func (s *State) Snapshot() *learning.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &learning.Snapshot{
		FeatureWeights: make(map[string]learning.FeatureWeight, len(s.features)),
		Patterns:       make(map[string]map[string]learning.CorrelationPattern, len(s.patterns)),
		Histories:      make(map[string]learning.SymbolHistory, len(s.histories)),
		Boldness:       s.boldness,
		TakenAt:        time.Now().UTC(),
	}
	for k, v := range s.features {
		snap.FeatureWeights[k] = v
	}
	for sym, pats := range s.patterns {
		cp := make(map[string]learning.CorrelationPattern, len(pats))
		for id, p := range pats {
			cp[id] = p
		}
		snap.Patterns[sym] = cp
	}
	for k, v := range s.histories {
		snap.Histories[k] = v
	}
	return snap
}

// Restore replaces the state from a checkpoint; used once at startup
func (s *State) Restore(snap *learning.Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.features = make(map[string]learning.FeatureWeight, len(snap.FeatureWeights))
	for k, v := range snap.FeatureWeights {
		s.features[k] = v
	}
	s.patterns = make(map[string]map[string]learning.CorrelationPattern, len(snap.Patterns))
	for sym, pats := range snap.Patterns {
		cp := make(map[string]learning.CorrelationPattern, len(pats))
		for id, p := range pats {
			cp[id] = p
		}
		s.patterns[sym] = cp
	}
	s.histories = make(map[string]learning.SymbolHistory, len(snap.Histories))
	for k, v := range snap.Histories {
		s.histories[k] = v
	}
	if snap.Boldness.GlobalBoldnessMultiplier >= learning.BoldnessFloor {
		s.boldness = snap.Boldness
	}
}
