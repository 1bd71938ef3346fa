package market

import (
	"math"
	"time"
)

// OHLCV represents one candlestick
type OHLCV struct {
	Symbol      string    `ch:"symbol"`
	Timeframe   string    `ch:"timeframe"` // 1m, 5m, 15m, 1h
	OpenTime    time.Time `ch:"open_time"`
	CloseTime   time.Time `ch:"close_time"`
	Open        float64   `ch:"open"`
	High        float64   `ch:"high"`
	Low         float64   `ch:"low"`
	Close       float64   `ch:"close"`
	Volume      float64   `ch:"volume"`
	QuoteVolume float64   `ch:"quote_volume"`
	Trades      uint64    `ch:"trades"`
	IsClosed    bool      `ch:"is_closed"`
}

// OHLCVQuery represents query parameters for OHLCV data
type OHLCVQuery struct {
	Symbol    string
	Timeframe string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Window is a chronologically ordered (oldest first) slice of candles for
// one symbol, the unit of input for an evaluation.
type Window []OHLCV

// Sanitize drops candles carrying NaN, infinite or non-positive prices so
// invalid feed samples never reach indicator computation.
func (w Window) Sanitize() Window {
	out := make(Window, 0, len(w))
	for _, c := range w {
		if !validPrice(c.Open) || !validPrice(c.High) || !validPrice(c.Low) || !validPrice(c.Close) {
			continue
		}
		if math.IsNaN(c.Volume) || c.Volume < 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

// Closes extracts close prices, oldest first
func (w Window) Closes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices, oldest first
func (w Window) Highs() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices, oldest first
func (w Window) Lows() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes, oldest first
func (w Window) Volumes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Volume
	}
	return out
}

// LastClose returns the most recent close price, or zero for an empty window
func (w Window) LastClose() float64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1].Close
}
