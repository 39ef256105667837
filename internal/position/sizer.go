// Package position sizes a hypothetical allocation from a signal result and
// volatility context, using a capped Kelly-criterion variant, and derives
// entry/exit timing plus dynamic stop-loss and take-profit levels.
package position

import (
	"math"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

const (
	kellyCap          = 0.25
	winProbFloor      = 0.15
	winProbCeiling    = 0.85
	signalMultFloor   = 0.1
	signalMultCeiling = 2.0
	riskMultFloor     = 0.1
	riskMultCeiling   = 2.0
)

// Sizer holds the capital and risk limits applied to every recommendation.
type Sizer struct {
	TotalCapital   float64
	MaxPositionPct float64
	RiskPerTrade   float64
	MinPosition    float64
}

// Inputs bundles everything the sizer needs for one symbol.
type Inputs struct {
	Signal       models.SignalResult
	Indicators   models.IndicatorSnapshot
	CurrentPrice float64
	UrgentBuy    int
	UrgentSell   int
}

// NewSizer creates a sizer with the given capital and limits.
func NewSizer(totalCapital, maxPositionPct, riskPerTrade, minPosition float64) *Sizer {
	return &Sizer{
		TotalCapital:   totalCapital,
		MaxPositionPct: maxPositionPct,
		RiskPerTrade:   riskPerTrade,
		MinPosition:    minPosition,
	}
}

// Recommend computes the full position recommendation for one symbol.
func (s *Sizer) Recommend(in Inputs) models.PositionRecommendation {
	buy, sell := strengths(in)
	net := buy - sell

	winProb := clamp(in.Signal.Score*in.Signal.Confidence/10, winProbFloor, winProbCeiling)

	kelly := 0.0
	if winProb > 0.5 {
		kelly = clamp(2*winProb-1, 0, kellyCap)
	}

	signalMult := clamp(math.Abs(float64(net))/5, signalMultFloor, signalMultCeiling)

	vol := volatility(in.Indicators.Bollinger)
	riskMult := clamp(1/(vol*20+0.1), riskMultFloor, riskMultCeiling)

	raw := s.TotalCapital * s.RiskPerTrade * signalMult * (1 + kelly) * riskMult
	maxAllowed := s.TotalCapital * s.MaxPositionPct
	dollars := round2(math.Min(math.Max(raw, s.MinPosition), maxAllowed))

	stopLoss, takeProfit, expectedReturn := profitTargets(in.CurrentPrice, vol, in.Indicators.Bollinger)

	return models.PositionRecommendation{
		Action:            action(net, in.Signal.Confidence),
		PositionFraction:  dollars / s.TotalCapital,
		DollarAmount:      dollars,
		KellyComponent:    kelly,
		SignalStrength:    signalMult,
		RiskMultiplier:    riskMult,
		RiskLevel:         riskLevel(vol),
		EntryTiming:       entryTiming(net, in.Signal.Urgency),
		ExitTiming:        exitTiming(in.Indicators.RSI, in.Signal.Urgency),
		StopLoss:          round2(stopLoss),
		TakeProfit:        round2(takeProfit),
		ExpectedReturnPct: round2(expectedReturn),
		WinProbability:    winProb,
	}
}

// strengths derives the buy and sell sub-scores (0–10 each) from the same
// indicator bands as the composite scorer.
func strengths(in Inputs) (int, int) {
	score := in.Signal.Score
	rsi := in.Indicators.RSI

	buy := 0
	switch {
	case score >= 8:
		buy += 4
	case score >= 7:
		buy += 3
	case score >= 6:
		buy += 2
	case score >= 5:
		buy += 1
	}
	switch {
	case rsi < 25:
		buy += 3
	case rsi < 30:
		buy += 2
	case rsi < 40:
		buy += 1
	}
	switch in.Indicators.MACDCross {
	case models.CrossGolden:
		buy += 2
	case models.CrossBullish:
		buy += 1
	}
	switch {
	case in.Indicators.VolumeRatio > 3:
		buy += 2
	case in.Indicators.VolumeRatio > 2:
		buy += 1
	}
	buy += min3(in.UrgentBuy)

	sell := 0
	switch {
	case score <= 2:
		sell += 4
	case score <= 3:
		sell += 3
	case score <= 4:
		sell += 2
	case score <= 5:
		sell += 1
	}
	switch {
	case rsi > 75:
		sell += 3
	case rsi > 70:
		sell += 2
	case rsi > 60:
		sell += 1
	}
	switch in.Indicators.MACDCross {
	case models.CrossDeath:
		sell += 2
	case models.CrossBearish:
		sell += 1
	}
	sell += min3(in.UrgentSell)

	if buy > 10 {
		buy = 10
	}
	if sell > 10 {
		sell = 10
	}
	return buy, sell
}

// volatility derives a relative-deviation proxy from the Bollinger envelope:
// width/4 recovers one rolling standard deviation as a fraction of price.
func volatility(b models.BollingerBands) float64 {
	v := b.Width() / 4
	if v <= 0 {
		v = 0.05
	}
	return v
}

func riskLevel(vol float64) string {
	switch {
	case vol > 0.20:
		return "EXTREME"
	case vol > 0.15:
		return "VERY_HIGH"
	case vol > 0.10:
		return "HIGH"
	case vol > 0.05:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// profitTargets combines three independent estimates per side and keeps the
// most conservative: the highest stop-loss and the lowest take-profit.
func profitTargets(price, vol float64, b models.BollingerBands) (float64, float64, float64) {
	atrEstimate := price * vol * 2

	stopLoss := math.Max(price-atrEstimate*1.5, math.Max(b.Lower*0.98, price*0.95))
	takeProfit := math.Min(price+atrEstimate*2.5, math.Min(b.Upper*1.02, price*1.10))

	expectedReturn := 0.0
	if price > 0 {
		expectedReturn = (takeProfit - price) / price * 100
	}
	return stopLoss, takeProfit, expectedReturn
}

func entryTiming(net, urgency int) models.EntryTiming {
	switch {
	case net > 5 || urgency >= 5:
		return models.EntryImmediate
	case net > 3 || urgency >= 4:
		return models.EntrySoon
	case net > 0:
		return models.EntryWait
	case net > -3:
		return models.EntryReduce
	default:
		return models.EntryExit
	}
}

func exitTiming(rsi float64, urgency int) models.ExitTiming {
	switch {
	case rsi > 80 || urgency >= 5:
		return models.ExitImmediate
	case rsi > 70 || urgency >= 4:
		return models.ExitPartial
	case rsi < 20:
		return models.ExitHold
	default:
		return models.ExitMonitor
	}
}

func action(net int, confidence float64) models.Action {
	switch {
	case net >= 6 && confidence > 0.8:
		return models.ActionStrongBuy
	case net >= 4 && confidence > 0.7:
		return models.ActionBuy
	case net >= 2:
		return models.ActionWeakBuy
	case net <= -6 && confidence > 0.8:
		return models.ActionStrongSell
	case net <= -4 && confidence > 0.7:
		return models.ActionSell
	case net <= -2:
		return models.ActionWeakSell
	default:
		return models.ActionHold
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func min3(n int) int {
	if n > 3 {
		return 3
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
