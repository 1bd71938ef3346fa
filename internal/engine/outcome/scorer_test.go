package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/trade"
)

func TestScore(t *testing.T) {
	s := NewScorer()

	t.Run("time in profit counts samples strictly above the threshold", func(t *testing.T) {
		// Profits: 0, 0.5, 1, -1, -0.5, 1.2, 1.8, 2, 1.5, 2.5; six exceed 0.5
		path := []float64{100, 100.5, 101, 99, 99.5, 101.2, 101.8, 102, 101.5, 102.5}
		res := s.Score(100, trade.DirectionLong, path, 0.5)

		assert.InDelta(t, 0.6, res.TimeInProfitRatio, 1e-9)
		assert.Equal(t, 10, res.Samples)
		assert.InDelta(t, 2.5, res.MaxProfit, 1e-9)
		assert.InDelta(t, -1.0, res.MinProfit, 1e-9)
		assert.Equal(t, 2, res.NumClusters)
		assert.Equal(t, 5, res.LongestCluster)
	})

	t.Run("repeating the profit pattern leaves the ratios unchanged", func(t *testing.T) {
		pattern := []float64{101, 102, 99.5, 103, 100.2}
		repeated := append(append([]float64{}, pattern...), pattern...)

		a := s.Score(100, trade.DirectionLong, pattern, 0.5)
		b := s.Score(100, trade.DirectionLong, repeated, 0.5)

		assert.InDelta(t, a.TimeInProfitRatio, b.TimeInProfitRatio, 1e-9)
		assert.InDelta(t, a.WeightedProfitScore, b.WeightedProfitScore, 1e-9)
		assert.InDelta(t, a.MaxProfit, b.MaxProfit, 1e-9)
	})

	t.Run("short direction flips the profit sign", func(t *testing.T) {
		path := []float64{99, 99, 99, 101}
		res := s.Score(100, trade.DirectionShort, path, 0.5)

		assert.InDelta(t, 0.75, res.TimeInProfitRatio, 1e-9)
		assert.InDelta(t, 1.0, res.MaxProfit, 1e-9)
		assert.InDelta(t, -1.0, res.MinProfit, 1e-9)
	})

	t.Run("scale invariance across price magnitudes", func(t *testing.T) {
		path := []float64{101, 102, 99.5, 103, 100.8}
		scaled := make([]float64, len(path))
		for i, p := range path {
			scaled[i] = p * 10
		}

		a := s.Score(100, trade.DirectionLong, path, 0.5)
		b := s.Score(1000, trade.DirectionLong, scaled, 0.5)

		assert.InDelta(t, a.FinalScore, b.FinalScore, 1e-9)
		assert.InDelta(t, a.TimeInProfitRatio, b.TimeInProfitRatio, 1e-9)
		assert.InDelta(t, a.WeightedProfitScore, b.WeightedProfitScore, 1e-9)
	})

	t.Run("empty path yields the zero score", func(t *testing.T) {
		res := s.Score(100, trade.DirectionLong, nil, 0.5)
		assert.Zero(t, res)
	})

	t.Run("non-positive entry yields the zero score", func(t *testing.T) {
		res := s.Score(0, trade.DirectionLong, []float64{101, 102}, 0.5)
		assert.Zero(t, res)
	})

	t.Run("sustained run sets the binary success flag", func(t *testing.T) {
		path := make([]float64, 40)
		for i := range path {
			path[i] = 102 // +2% throughout
		}
		res := s.Score(100, trade.DirectionLong, path, 0.5)

		assert.Equal(t, 1.0, res.BinarySuccessFlag)
		assert.Equal(t, 40, res.LongestCluster)
	})

	t.Run("run below the sustained length leaves the flag unset", func(t *testing.T) {
		path := make([]float64, 29)
		for i := range path {
			path[i] = 102
		}
		res := s.Score(100, trade.DirectionLong, path, 0.5)
		assert.Equal(t, 0.0, res.BinarySuccessFlag)
	})

	t.Run("never-profitable path scores only cluster-free components", func(t *testing.T) {
		path := []float64{99, 98, 97.5, 98.2}
		res := s.Score(100, trade.DirectionLong, path, 0.5)

		assert.Equal(t, 0.0, res.TimeInProfitRatio)
		assert.Equal(t, 0, res.NumClusters)
		assert.Equal(t, 0.0, res.WeightedProfitScore)
		assert.Equal(t, 0.0, res.FinalScore)
	})

	t.Run("final score is the weighted component sum", func(t *testing.T) {
		path := []float64{101, 99, 101, 101, 99, 101, 101, 101, 99, 101}
		res := s.Score(100, trade.DirectionLong, path, 0.5)

		want := 0.4*res.TimeInProfitRatio +
			0.3*res.WeightedProfitScore +
			0.2*res.ClusterScore +
			0.1*res.BinarySuccessFlag
		require.InDelta(t, want, res.FinalScore, 1e-9)
		assert.Greater(t, res.FinalScore, 0.0)
		assert.LessOrEqual(t, res.FinalScore, 1.0)
		assert.Equal(t, 4, res.NumClusters)
		assert.Equal(t, 3, res.LongestCluster)
	})
}
