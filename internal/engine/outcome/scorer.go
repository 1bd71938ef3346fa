package outcome

import (
	"helios/internal/domain/trade"
)

// Hybrid score component weights
const (
	weightTimeInProfit   = 0.4
	weightWeightedProfit = 0.3
	weightCluster        = 0.2
	weightBinarySuccess  = 0.1
)

// sustainedClusterLen is the consecutive-profitable-sample run length that
// flags a sustained profit
const sustainedClusterLen = 30

// epsilon guards divisions on near-zero profit paths
const epsilon = 1e-9

// Score is the bounded hybrid success score of one completed trade
type Score struct {
	FinalScore          float64 `json:"final_score"` // [0,1]
	TimeInProfitRatio   float64 `json:"time_in_profit_ratio"`
	WeightedProfitScore float64 `json:"weighted_profit_score"`
	ClusterScore        float64 `json:"cluster_score"`
	BinarySuccessFlag   float64 `json:"binary_success_flag"`

	// Breakdown
	Samples        int     `json:"samples"`
	NumClusters    int     `json:"num_clusters"`
	LongestCluster int     `json:"longest_cluster"`
	MaxProfit      float64 `json:"max_profit"`
	MinProfit      float64 `json:"min_profit"`
}

// Scorer grades the realized outcome of a trade from its intra-trade price
// path.
type Scorer struct{}

// NewScorer creates an outcome scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the hybrid success score. profitThreshold is the signed
// profit (in percent) a sample must exceed to count as profitable. An empty
// path yields the zero score, not an error.
func (s *Scorer) Score(entryPrice float64, direction trade.Direction, pricePath []float64, profitThreshold float64) Score {
	if len(pricePath) == 0 || entryPrice <= 0 {
		return Score{}
	}

	n := len(pricePath)
	profits := make([]float64, n)
	for i, p := range pricePath {
		profits[i] = signedProfitPercent(entryPrice, p, direction)
	}

	res := Score{Samples: n}
	res.MaxProfit, res.MinProfit = profits[0], profits[0]

	inProfit := 0
	sum := 0.0
	current := 0
	for _, pf := range profits {
		sum += pf
		if pf > res.MaxProfit {
			res.MaxProfit = pf
		}
		if pf < res.MinProfit {
			res.MinProfit = pf
		}

		if pf > profitThreshold {
			inProfit++
			current++
			if current > res.LongestCluster {
				res.LongestCluster = current
			}
			if current == 1 {
				res.NumClusters++
			}
		} else {
			current = 0
		}
	}

	res.TimeInProfitRatio = float64(inProfit) / float64(n)

	// Weighted profit capture: realized area under the profit curve against
	// the best case of holding max profit the whole time
	if res.MaxProfit > epsilon {
		res.WeightedProfitScore = clamp01(sum / (float64(n) * res.MaxProfit))
	}

	// Cluster consistency blends cluster density with the longest run
	density := float64(res.NumClusters) / (float64(n) / 10.0)
	longest := float64(res.LongestCluster) / float64(n)
	res.ClusterScore = clamp01(0.5*density + 0.5*longest)

	if res.LongestCluster >= sustainedClusterLen {
		res.BinarySuccessFlag = 1.0
	}

	res.FinalScore = weightTimeInProfit*res.TimeInProfitRatio +
		weightWeightedProfit*res.WeightedProfitScore +
		weightCluster*res.ClusterScore +
		weightBinarySuccess*res.BinarySuccessFlag

	return res
}

// signedProfitPercent is the profit of one path sample relative to entry,
// in percent, positive when the trade direction is winning.
func signedProfitPercent(entry, price float64, direction trade.Direction) float64 {
	change := (price - entry) / entry * 100
	if direction == trade.DirectionShort {
		return -change
	}
	return change
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
