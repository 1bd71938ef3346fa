package market

import "time"

// BollingerBands holds the three Bollinger band values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Width returns the band width relative to the middle band, as a percentage.
// Zero middle band yields zero width rather than a division error.
func (b BollingerBands) Width() float64 {
	if b.Middle == 0 {
		return 0
	}
	return (b.Upper - b.Lower) / b.Middle * 100
}

// IndicatorSnapshot is the immutable set of indicator values for one
// evaluated minute of one symbol.
type IndicatorSnapshot struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	Price float64 `json:"price"` // close of the most recent candle

	RSI           float64        `json:"rsi"`
	MACD          float64        `json:"macd"`
	MACDSignal    float64        `json:"macd_signal"`
	MACDHistogram float64        `json:"macd_histogram"`
	Bollinger     BollingerBands `json:"bollinger"`
	StochasticK   float64        `json:"stochastic_k"`
	StochasticD   float64        `json:"stochastic_d"`
	EMAShort      float64        `json:"ema_short"`
	EMAMid        float64        `json:"ema_mid"`
	EMALong       float64        `json:"ema_long"`
	SMA20         float64        `json:"sma_20"`
	SMA50         float64        `json:"sma_50"`
	Volatility    float64        `json:"volatility"` // realized, % of price

	LastVolume float64 `json:"last_volume"`
	VolumeAvg  float64 `json:"volume_avg"`

	// Degraded marks a snapshot built from too little data: the fields above
	// hold neutral defaults and downstream consumers discount them.
	Degraded bool `json:"degraded"`
}
