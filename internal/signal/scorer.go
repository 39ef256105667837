// Package signal maps an indicator snapshot onto a bounded composite score,
// human-readable signal labels, a confidence value, and an urgency level.
package signal

import (
	"fmt"
	"math"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

const (
	baseScore = 5.0
	maxLabels = 5
)

// Context carries the raw price context scored alongside the indicators.
type Context struct {
	CurrentPrice float64
	ChangePct    float64 // single-day move, percent
	UrgentBuy    int     // externally supplied urgent signal counts, optional
	UrgentSell   int
}

// Score derives the composite signal result for one symbol. Every indicator
// contributes through a fixed step function of its value; the sum is clamped
// to [0,10] after all contributions.
func Score(ind models.IndicatorSnapshot, ctx Context) models.SignalResult {
	score := baseScore
	var labels []string

	add := func(delta float64, label string) {
		score += delta
		labels = append(labels, label)
	}

	// RSI bands
	switch {
	case ind.RSI < 30:
		add(3, fmt.Sprintf("RSI oversold (%.1f)", ind.RSI))
	case ind.RSI < 40:
		add(2, fmt.Sprintf("RSI buy zone (%.1f)", ind.RSI))
	case ind.RSI > 70:
		add(-2, fmt.Sprintf("RSI overbought (%.1f)", ind.RSI))
	}

	// MACD crossover state
	switch ind.MACDCross {
	case models.CrossGolden:
		add(3, "MACD golden cross")
	case models.CrossBullish:
		add(1, "MACD bullish")
	case models.CrossDeath:
		add(-2, "MACD death cross")
	}

	// Bollinger band position
	switch pos := ind.Bollinger.Position; {
	case pos <= 0.1:
		add(2.5, "Bollinger lower band break")
	case pos <= 0.2:
		add(1.5, "Bollinger lower band zone")
	case pos >= 0.9:
		add(-1.5, "Bollinger upper band break")
	case pos >= 0.8:
		add(-1, "Bollinger upper band zone")
	}

	// Moving average alignment
	if ctx.CurrentPrice > ind.SMA5 && ind.SMA5 > ind.SMA20 && ind.SMA20 > ind.SMA50 {
		add(2, "Aligned moving averages")
	} else if ctx.CurrentPrice > ind.SMA20 {
		add(1, "Above 20-day average")
	}

	// Volume confirmation
	switch {
	case ind.VolumeRatio > 2.0:
		add(1.5, fmt.Sprintf("Volume surge (%.1fx)", ind.VolumeRatio))
	case ind.VolumeRatio > 1.5:
		add(0.5, fmt.Sprintf("Volume pickup (%.1fx)", ind.VolumeRatio))
	}

	score = math.Max(0, math.Min(10, score))
	if len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}

	return models.SignalResult{
		Score:      score,
		Confidence: confidence(score, len(labels)),
		Signals:    labels,
		Urgency:    urgency(ind, ctx),
	}
}

// confidence grows with the score's distance from neutral and the number of
// agreeing signals, bounded to [0,1].
func confidence(score float64, agreeing int) float64 {
	magnitude := math.Abs(score-baseScore) / baseScore
	c := 0.35 + 0.4*magnitude + 0.05*float64(agreeing)
	return math.Max(0, math.Min(1, c))
}

// urgency is a monotonic 0..5 escalation scale driven only by extreme
// single-indicator readings, independent of the composite score.
func urgency(ind models.IndicatorSnapshot, ctx Context) int {
	level := 0
	raise := func(n int) {
		if n > level {
			level = n
		}
	}

	move := math.Abs(ctx.ChangePct)
	switch {
	case move >= 10:
		raise(5)
	case move >= 5:
		raise(4)
	case move >= 3:
		raise(2)
	}

	switch {
	case ind.RSI <= 20 || ind.RSI >= 80:
		raise(4)
	case ind.RSI <= 25 || ind.RSI >= 75:
		raise(3)
	}

	if n := ctx.UrgentBuy + ctx.UrgentSell; n >= 2 {
		raise(4)
	} else if n == 1 {
		raise(3)
	}

	if level > 5 {
		level = 5
	}
	return level
}
