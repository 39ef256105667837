// Package indicators computes technical indicators over a bar series. All
// computations are pure functions: identical input bars produce identical
// snapshots, and degenerate inputs fall back to documented neutral values
// instead of failing.
package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

// ErrInsufficientData indicates a bar series is shorter than the configured
// minimum and no indicators were computed.
var ErrInsufficientData = errors.New("insufficient bars for analysis")

const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignalSpan  = 9
	BollingerPeriod = 20
	BollingerStd    = 2.0
	VolumeWindow    = 20
	RangePeriod     = 20
)

// Engine turns a bar series into an indicator snapshot.
type Engine struct {
	minBars int
}

// NewEngine creates an engine that rejects series shorter than minBars.
func NewEngine(minBars int) *Engine {
	if minBars < 2 {
		minBars = 2
	}
	return &Engine{minBars: minBars}
}

// Compute builds the full indicator snapshot for one series.
func (e *Engine) Compute(series *models.BarSeries) (models.IndicatorSnapshot, error) {
	if series.Len() < e.minBars {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: %s has %d bars, need %d",
			ErrInsufficientData, series.Symbol, series.Len(), e.minBars)
	}

	closes := series.Closes()
	line, signalLine, cross := MACD(closes, MACDFast, MACDSlow, MACDSignalSpan)
	support, resistance := PriceRange(series.Highs(), series.Lows(), RangePeriod)

	snapshot := models.IndicatorSnapshot{
		RSI:         RSI(closes, RSIPeriod),
		MACDLine:    line,
		MACDSignal:  signalLine,
		MACDCross:   cross,
		Bollinger:   Bollinger(closes, BollingerPeriod, BollingerStd),
		SMA5:        SMA(closes, 5),
		SMA20:       SMA(closes, 20),
		SMA50:       SMA(closes, 50),
		VolumeRatio: VolumeRatio(series.Volumes(), VolumeWindow),
		Support:     support,
		Resistance:  resistance,
	}
	return snapshot, nil
}

// RSI computes the Relative Strength Index over the trailing window. A window
// with zero average loss yields 100 when gains are present and a neutral 50
// when the window is entirely flat or too short.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	return math.Max(0, math.Min(100, rsi))
}

// MACD computes the MACD line, its signal line, and the crossover state.
// The state compares the current MACD-vs-signal ordering against the previous
// bar's: a move from at-or-below to above is a golden cross, the inverse a
// death cross, anything else bullish or bearish by current position.
func MACD(closes []float64, fast, slow, signalSpan int) (float64, float64, models.CrossState) {
	if len(closes) < 2 {
		return 0, 0, models.CrossBearish
	}

	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signal := EMASeries(line, signalSpan)

	n := len(closes)
	cur, curSig := line[n-1], signal[n-1]
	prev, prevSig := line[n-2], signal[n-2]

	var state models.CrossState
	switch {
	case prev <= prevSig && cur > curSig:
		state = models.CrossGolden
	case prev >= prevSig && cur < curSig:
		state = models.CrossDeath
	case cur > curSig:
		state = models.CrossBullish
	default:
		state = models.CrossBearish
	}

	return cur, curSig, state
}

// EMASeries computes the exponentially weighted mean of values with smoothing
// 2/(span+1), seeded from the first value.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Bollinger computes the volatility envelope over the trailing window. A
// series shorter than the window degrades to a synthetic ±5% envelope, and a
// zero-width band pins the position to 0.5.
func Bollinger(closes []float64, period int, stdMult float64) models.BollingerBands {
	price := closes[len(closes)-1]
	if len(closes) < period {
		return models.BollingerBands{
			Upper:    price * 1.05,
			Middle:   price,
			Lower:    price * 0.95,
			Position: 0.5,
		}
	}

	window := closes[len(closes)-period:]
	mean := meanOf(window)

	var sumSq float64
	for _, v := range window {
		d := v - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(period-1))

	bands := models.BollingerBands{
		Upper:  mean + std*stdMult,
		Middle: mean,
		Lower:  mean - std*stdMult,
	}

	width := bands.Upper - bands.Lower
	if width == 0 {
		bands.Position = 0.5
	} else {
		bands.Position = math.Max(0, math.Min(1, (price-bands.Lower)/width))
	}
	return bands
}

// SMA computes the simple moving average over the trailing window, degrading
// to the last price when the series is shorter than the window.
func SMA(values []float64, window int) float64 {
	if len(values) < window {
		return values[len(values)-1]
	}
	return meanOf(values[len(values)-window:])
}

// VolumeRatio is the current volume over its trailing rolling average,
// defaulting to 1 when the average is zero.
func VolumeRatio(volumes []float64, window int) float64 {
	if len(volumes) == 0 {
		return 1
	}
	n := len(volumes)
	start := n - window
	if start < 0 {
		start = 0
	}
	avg := meanOf(volumes[start:n])
	if avg <= 0 {
		return 1
	}
	return volumes[n-1] / avg
}

// PriceRange returns the recent low (support) and high (resistance) over the
// trailing window.
func PriceRange(highs, lows []float64, period int) (float64, float64) {
	n := len(highs)
	if n == 0 || len(lows) != n {
		return 0, 0
	}
	start := n - period
	if start < 0 {
		start = 0
	}
	support := lows[start]
	resistance := highs[start]
	for i := start + 1; i < n; i++ {
		if lows[i] < support {
			support = lows[i]
		}
		if highs[i] > resistance {
			resistance = highs[i]
		}
	}
	return support, resistance
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
