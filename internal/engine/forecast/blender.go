package forecast

import (
	"math"
	"math/rand"
	"time"

	"helios/internal/domain/trade"
)

// Config holds the blender tunables
type Config struct {
	HorizonMinutes  int
	MaxMovePercent  float64
	DeadBandPercent float64
	NoiseAmplitude  float64

	MomentumWeight      float64
	MeanReversionWeight float64
	DriftWeight         float64
	RangeWeight         float64
}

// DefaultConfig returns the standard forecast settings
func DefaultConfig() Config {
	return Config{
		HorizonMinutes:      30,
		MaxMovePercent:      5.0,
		DeadBandPercent:     0.15,
		NoiseAmplitude:      0.05,
		MomentumWeight:      0.35,
		MeanReversionWeight: 0.25,
		DriftWeight:         0.25,
		RangeWeight:         0.15,
	}
}

// Forecast is the blended price projection handed to the predictor and
// persisted for later accuracy tracking.
type Forecast struct {
	Symbol           string          `json:"symbol"`
	CurrentPrice     float64         `json:"current_price"`
	PredictedPrice   float64         `json:"predicted_price"`
	MovePercent      float64         `json:"move_percent"` // signed
	Direction        trade.Direction `json:"direction"`
	Confidence       float64         `json:"confidence"`        // [0,100]
	ProfitLikelihood float64         `json:"profit_likelihood"` // [0,100]
	Horizon          time.Duration   `json:"horizon"`
	CreatedAt        time.Time       `json:"created_at"`
	DueAt            time.Time       `json:"due_at"`
	PerStrategy      map[string]float64 `json:"per_strategy"` // name -> projected price
}

// Blender combines the labeled strategies into a single directional
// forecast, scaling the projected move by the adaptive boldness
// multiplier and clamping it to the configured ceiling.
type Blender struct {
	cfg        Config
	strategies []weighted
}

type weighted struct {
	strategy Strategy
	weight   float64
}

// NewBlender wires the four heuristic strategies with the configured
// blend weights. Weights are normalized so callers can pass any positive
// values.
func NewBlender(cfg Config, rnd *rand.Rand) *Blender {
	if cfg.HorizonMinutes <= 0 {
		cfg.HorizonMinutes = 30
	}
	if cfg.MaxMovePercent <= 0 {
		cfg.MaxMovePercent = 5.0
	}

	strategies := []weighted{
		{NewMomentum(10, rnd, cfg.NoiseAmplitude), cfg.MomentumWeight},
		{NewMeanReversion(20, rnd, cfg.NoiseAmplitude), cfg.MeanReversionWeight},
		{NewDrift(rnd, cfg.NoiseAmplitude), cfg.DriftWeight},
		{NewRangeProjection(30, rnd, cfg.NoiseAmplitude), cfg.RangeWeight},
	}

	var total float64
	for _, w := range strategies {
		if w.weight > 0 {
			total += w.weight
		}
	}
	if total <= 0 {
		for i := range strategies {
			strategies[i].weight = 1.0 / float64(len(strategies))
		}
	} else {
		for i := range strategies {
			if strategies[i].weight < 0 {
				strategies[i].weight = 0
			}
			strategies[i].weight /= total
		}
	}

	return &Blender{cfg: cfg, strategies: strategies}
}

// Blend produces the forecast for one symbol. boldness amplifies the
// projected deviation from the last price; a move inside the dead band
// yields a WAIT direction.
func (b *Blender) Blend(symbol string, closes []float64, boldness float64) Forecast {
	now := time.Now().UTC()
	horizon := time.Duration(b.cfg.HorizonMinutes) * time.Minute
	f := Forecast{
		Symbol:      symbol,
		Direction:   trade.DirectionWait,
		Horizon:     horizon,
		CreatedAt:   now,
		DueAt:       now.Add(horizon),
		PerStrategy: make(map[string]float64, len(b.strategies)),
	}
	if len(closes) == 0 {
		return f
	}
	last := closes[len(closes)-1]
	f.CurrentPrice = last
	f.PredictedPrice = last
	if last <= 0 {
		return f
	}

	var blended float64
	var agreeLong, agreeShort int
	for _, w := range b.strategies {
		p := w.strategy.Predict(closes, b.cfg.HorizonMinutes)
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			p = last
		}
		f.PerStrategy[w.strategy.Name()] = p
		blended += p * w.weight
		switch {
		case p > last:
			agreeLong++
		case p < last:
			agreeShort++
		}
	}

	if boldness < 1 {
		boldness = 1
	}
	movePct := (blended - last) / last * 100 * boldness
	movePct = clampAbs(movePct, b.cfg.MaxMovePercent)

	f.MovePercent = movePct
	f.PredictedPrice = last * (1 + movePct/100)

	switch {
	case movePct >= b.cfg.DeadBandPercent:
		f.Direction = trade.DirectionLong
	case movePct <= -b.cfg.DeadBandPercent:
		f.Direction = trade.DirectionShort
	default:
		f.Direction = trade.DirectionWait
	}

	f.Confidence, f.ProfitLikelihood = b.score(f.Direction, movePct, agreeLong, agreeShort)
	return f
}

// score derives confidence from strategy agreement and move magnitude,
// and profit likelihood from how far beyond the dead band the move runs.
func (b *Blender) score(dir trade.Direction, movePct float64, agreeLong, agreeShort int) (confidence, likelihood float64) {
	if !dir.Tradeable() {
		return 0, 0
	}

	agree := agreeLong
	if dir == trade.DirectionShort {
		agree = agreeShort
	}
	agreement := float64(agree) / float64(len(b.strategies)) // [0,1]

	magnitude := math.Abs(movePct) / b.cfg.MaxMovePercent // [0,1]
	confidence = clampAbs(40*agreement+40*magnitude+20, 100)

	over := math.Abs(movePct) - b.cfg.DeadBandPercent
	span := b.cfg.MaxMovePercent - b.cfg.DeadBandPercent
	if span <= 0 {
		span = 1
	}
	likelihood = clampAbs(30+50*(over/span)+20*agreement, 100)
	return confidence, likelihood
}

func clampAbs(v, lim float64) float64 {
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return v
}
