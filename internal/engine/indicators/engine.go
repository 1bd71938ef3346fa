package indicators

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"helios/internal/domain/market"
)

// Config holds indicator periods
type Config struct {
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerStdDev float64
	StochKPeriod    int
	StochDPeriod    int
	EMAShort        int
	EMAMid          int
	EMALong         int
	SMAShort        int
	SMALong         int
}

// DefaultConfig returns the standard periods
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		StochKPeriod:    14,
		StochDPeriod:    3,
		EMAShort:        12,
		EMAMid:          26,
		EMALong:         50,
		SMAShort:        20,
		SMALong:         50,
	}
}

// Neutral defaults for degraded snapshots
const (
	NeutralRSI        = 50.0
	NeutralStochastic = 50.0
)

// Engine computes indicator snapshots from price windows. It fails soft:
// any indicator without enough samples gets its neutral default instead of
// an error, and the snapshot is flagged degraded.
type Engine struct {
	cfg Config
}

// NewEngine creates an indicator engine
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute builds the indicator snapshot for a sanitized window.
// The window must be chronological, oldest first.
func (e *Engine) Compute(symbol string, w market.Window, ts time.Time) market.IndicatorSnapshot {
	w = w.Sanitize()

	snap := market.IndicatorSnapshot{
		Symbol:    symbol,
		Timestamp: ts,
	}

	closes := w.Closes()
	n := len(closes)
	price := w.LastClose()
	snap.Price = price

	// Neutral baseline; individual indicators overwrite what they can compute
	snap.RSI = NeutralRSI
	snap.StochasticK = NeutralStochastic
	snap.StochasticD = NeutralStochastic
	snap.Bollinger = market.BollingerBands{Upper: price, Middle: price, Lower: price}
	snap.EMAShort, snap.EMAMid, snap.EMALong = price, price, price
	snap.SMA20, snap.SMA50 = price, price

	if n == 0 {
		snap.Degraded = true
		return snap
	}

	snap.LastVolume = w[len(w)-1].Volume
	snap.VolumeAvg = mean(w.Volumes())

	// RSI (Wilder smoothing, via ta-lib)
	if n >= e.cfg.RSIPeriod+1 {
		snap.RSI = lastValid(talib.Rsi(closes, e.cfg.RSIPeriod), NeutralRSI)
	} else {
		snap.Degraded = true
	}

	// MACD line, signal, histogram
	if n >= e.cfg.MACDSlow+e.cfg.MACDSignal {
		macd, signal, hist := talib.Macd(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
		snap.MACD = lastValid(macd, 0)
		snap.MACDSignal = lastValid(signal, 0)
		snap.MACDHistogram = lastValid(hist, 0)
	} else {
		snap.Degraded = true
	}

	// Bollinger bands: SMA(20) +/- 2*stddev(20)
	if n >= e.cfg.BollingerPeriod {
		upper, middle, lower := talib.BBands(closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev, e.cfg.BollingerStdDev, talib.SMA)
		snap.Bollinger = market.BollingerBands{
			Upper:  lastValid(upper, price),
			Middle: lastValid(middle, price),
			Lower:  lastValid(lower, price),
		}
	} else {
		snap.Degraded = true
	}

	// Stochastic %K over the high/low range, %D = SMA(%K)
	if n >= e.cfg.StochKPeriod+e.cfg.StochDPeriod {
		slowK, slowD := talib.Stoch(w.Highs(), w.Lows(), closes, e.cfg.StochKPeriod, 1, talib.SMA, e.cfg.StochDPeriod, talib.SMA)
		snap.StochasticK = lastValid(slowK, NeutralStochastic)
		snap.StochasticD = lastValid(slowD, NeutralStochastic)
	}

	// Moving averages; each falls back to price when the window is short
	if n >= e.cfg.EMAShort {
		snap.EMAShort = lastValid(talib.Ema(closes, e.cfg.EMAShort), price)
	}
	if n >= e.cfg.EMAMid {
		snap.EMAMid = lastValid(talib.Ema(closes, e.cfg.EMAMid), price)
	}
	if n >= e.cfg.EMALong {
		snap.EMALong = lastValid(talib.Ema(closes, e.cfg.EMALong), price)
	}
	if n >= e.cfg.SMAShort {
		snap.SMA20 = lastValid(talib.Sma(closes, e.cfg.SMAShort), price)
	}
	if n >= e.cfg.SMALong {
		snap.SMA50 = lastValid(talib.Sma(closes, e.cfg.SMALong), price)
	}

	snap.Volatility = realizedVolatility(closes)

	return snap
}

// realizedVolatility is the standard deviation of one-step returns, as a
// percentage. Fewer than two samples yields zero.
func realizedVolatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	m := mean(returns)
	variance := 0.0
	for _, r := range returns {
		d := r - m
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// lastValid returns the last finite value of a ta-lib output slice, or the
// fallback when the slice is empty or ends in NaN warmup values.
func lastValid(values []float64, fallback float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			return values[i]
		}
	}
	return fallback
}
