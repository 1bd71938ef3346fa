package forecast

import (
	"math"
	"math/rand"
)

// Strategy projects a price some minutes ahead from a window of closes.
// All implementations are labeled heuristics working off recent price
// structure; none carries trained parameters.
type Strategy interface {
	Name() string
	Predict(closes []float64, horizonMinutes int) float64
}

// Momentum extrapolates the recent short-window slope, damped so a
// one-candle spike does not explode the projection.
type Momentum struct {
	Lookback int
	rnd      *rand.Rand
	noise    float64
}

// NewMomentum creates the momentum strategy with the given lookback
func NewMomentum(lookback int, rnd *rand.Rand, noiseAmplitude float64) *Momentum {
	if lookback < 2 {
		lookback = 10
	}
	return &Momentum{Lookback: lookback, rnd: rnd, noise: noiseAmplitude}
}

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) Predict(closes []float64, horizonMinutes int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}
	last := closes[n-1]
	if n < 2 {
		return last
	}
	lb := s.Lookback
	if lb >= n {
		lb = n - 1
	}
	slope := (last - closes[n-1-lb]) / float64(lb)
	// Damp the extrapolation: momentum decays over the horizon
	projected := last + slope*float64(horizonMinutes)*0.5
	return projected * (1 + jitter(s.rnd, s.noise))
}

// MeanReversion pulls the projection toward the window's moving average,
// proportional to the current stretch away from it.
type MeanReversion struct {
	Period   int
	Strength float64
	rnd      *rand.Rand
	noise    float64
}

// NewMeanReversion creates the mean reversion strategy
func NewMeanReversion(period int, rnd *rand.Rand, noiseAmplitude float64) *MeanReversion {
	if period < 2 {
		period = 20
	}
	return &MeanReversion{Period: period, Strength: 0.3, rnd: rnd, noise: noiseAmplitude}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Predict(closes []float64, horizonMinutes int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}
	last := closes[n-1]
	p := s.Period
	if p > n {
		p = n
	}
	var sum float64
	for _, c := range closes[n-p:] {
		sum += c
	}
	mean := sum / float64(p)
	// Partial reversion toward the mean over the horizon
	pull := s.Strength * math.Min(1, float64(horizonMinutes)/float64(p))
	projected := last + (mean-last)*pull
	return projected * (1 + jitter(s.rnd, s.noise))
}

// Drift projects the window's average per-candle log return forward
type Drift struct {
	rnd   *rand.Rand
	noise float64
}

// NewDrift creates the drift strategy
func NewDrift(rnd *rand.Rand, noiseAmplitude float64) *Drift {
	return &Drift{rnd: rnd, noise: noiseAmplitude}
}

func (s *Drift) Name() string { return "drift" }

func (s *Drift) Predict(closes []float64, horizonMinutes int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}
	last := closes[n-1]
	if n < 2 {
		return last
	}
	var sum float64
	var count int
	for i := 1; i < n; i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			sum += math.Log(closes[i] / closes[i-1])
			count++
		}
	}
	if count == 0 {
		return last
	}
	drift := sum / float64(count)
	projected := last * math.Exp(drift*float64(horizonMinutes))
	return projected * (1 + jitter(s.rnd, s.noise))
}

// RangeProjection anchors the projection at the midpoint of the recent
// high-low range, biased toward the side the price currently occupies.
type RangeProjection struct {
	Period int
	rnd    *rand.Rand
	noise  float64
}

// NewRangeProjection creates the range projection strategy
func NewRangeProjection(period int, rnd *rand.Rand, noiseAmplitude float64) *RangeProjection {
	if period < 2 {
		period = 30
	}
	return &RangeProjection{Period: period, rnd: rnd, noise: noiseAmplitude}
}

func (s *RangeProjection) Name() string { return "range_projection" }

func (s *RangeProjection) Predict(closes []float64, horizonMinutes int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}
	last := closes[n-1]
	p := s.Period
	if p > n {
		p = n
	}
	lo, hi := closes[n-p], closes[n-p]
	for _, c := range closes[n-p:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	if hi <= lo {
		return last
	}
	mid := (lo + hi) / 2
	// Price in the upper half drifts toward the high, lower half toward
	// the low; near the midpoint the projection stays put.
	pos := (last - mid) / (hi - lo) // [-0.5, 0.5]
	projected := last + pos*(hi-lo)*0.25
	return projected * (1 + jitter(s.rnd, s.noise))
}

// jitter returns a small symmetric noise term in percent-of-price units
func jitter(rnd *rand.Rand, amplitude float64) float64 {
	if rnd == nil || amplitude <= 0 {
		return 0
	}
	return (rnd.Float64()*2 - 1) * amplitude / 100
}
