package models

import (
	"errors"
	"time"
)

// CrossState classifies the MACD line relative to its signal line.
type CrossState string

const (
	CrossGolden  CrossState = "golden_cross"
	CrossDeath   CrossState = "death_cross"
	CrossBullish CrossState = "bullish"
	CrossBearish CrossState = "bearish"
)

// BollingerBands holds the volatility envelope around the rolling mean.
// Position is the closing price's fractional location between the bands.
type BollingerBands struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Position float64 `json:"position"`
}

// Width returns the band width as a fraction of the middle band.
func (b BollingerBands) Width() float64 {
	if b.Middle == 0 {
		return 0
	}
	return (b.Upper - b.Lower) / b.Middle
}

// IndicatorSnapshot is the per-symbol, per-cycle indicator value object.
// It is recomputed every cycle and never persisted standalone.
type IndicatorSnapshot struct {
	RSI         float64        `json:"rsi"`
	MACDLine    float64        `json:"macd_line"`
	MACDSignal  float64        `json:"macd_signal_line"`
	MACDCross   CrossState     `json:"macd_crossover_state"`
	Bollinger   BollingerBands `json:"bollinger"`
	SMA5        float64        `json:"sma_5"`
	SMA20       float64        `json:"sma_20"`
	SMA50       float64        `json:"sma_50"`
	VolumeRatio float64        `json:"volume_ratio"`
	Support     float64        `json:"support"`
	Resistance  float64        `json:"resistance"`
}

// Validate checks indicator snapshot invariants.
func (s *IndicatorSnapshot) Validate() error {
	if s.RSI < 0 || s.RSI > 100 {
		return errors.New("rsi must be between 0 and 100")
	}
	if s.Bollinger.Position < 0 || s.Bollinger.Position > 1 {
		return errors.New("bollinger position must be between 0 and 1")
	}
	if s.VolumeRatio < 0 {
		return errors.New("volume ratio must not be negative")
	}
	switch s.MACDCross {
	case CrossGolden, CrossDeath, CrossBullish, CrossBearish:
	default:
		return errors.New("unknown macd crossover state")
	}
	return nil
}

// SignalResult is the scored outcome of a single-symbol evaluation.
type SignalResult struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
	Urgency    int      `json:"urgency_level"`
}

// Validate checks signal result invariants.
func (r *SignalResult) Validate() error {
	if r.Score < 0 || r.Score > 10 {
		return errors.New("score must be between 0 and 10")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.New("confidence must be between 0 and 1")
	}
	if r.Urgency < 0 || r.Urgency > 5 {
		return errors.New("urgency level must be between 0 and 5")
	}
	return nil
}

// Action is the final trade recommendation.
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionWeakBuy    Action = "WEAK_BUY"
	ActionHold       Action = "HOLD"
	ActionWeakSell   Action = "WEAK_SELL"
	ActionSell       Action = "SELL"
	ActionStrongSell Action = "STRONG_SELL"
)

// EntryTiming is the recommended entry urgency.
type EntryTiming string

const (
	EntryImmediate EntryTiming = "IMMEDIATE"
	EntrySoon      EntryTiming = "SOON"
	EntryWait      EntryTiming = "WAIT"
	EntryReduce    EntryTiming = "REDUCE"
	EntryExit      EntryTiming = "EXIT"
)

// ExitTiming is the recommended exit urgency for an existing position.
type ExitTiming string

const (
	ExitImmediate ExitTiming = "IMMEDIATE"
	ExitPartial   ExitTiming = "PARTIAL"
	ExitHold      ExitTiming = "HOLD"
	ExitMonitor   ExitTiming = "MONITOR"
)

// PositionRecommendation is the sized, risk-adjusted allocation for a symbol.
type PositionRecommendation struct {
	Action            Action      `json:"action"`
	PositionFraction  float64     `json:"position_fraction"`
	DollarAmount      float64     `json:"dollar_amount"`
	KellyComponent    float64     `json:"kelly_component"`
	SignalStrength    float64     `json:"signal_strength"`
	RiskMultiplier    float64     `json:"risk_multiplier"`
	RiskLevel         string      `json:"risk_level"`
	EntryTiming       EntryTiming `json:"entry_timing"`
	ExitTiming        ExitTiming  `json:"exit_timing"`
	StopLoss          float64     `json:"stop_loss"`
	TakeProfit        float64     `json:"take_profit"`
	ExpectedReturnPct float64     `json:"expected_return_pct"`
	WinProbability    float64     `json:"win_probability"`
}

// Validate checks position recommendation invariants.
func (p *PositionRecommendation) Validate() error {
	if p.KellyComponent < 0 || p.KellyComponent > 0.25 {
		return errors.New("kelly component must be between 0 and 0.25")
	}
	if p.WinProbability < 0.15 || p.WinProbability > 0.85 {
		return errors.New("win probability must be between 0.15 and 0.85")
	}
	if p.PositionFraction < 0 {
		return errors.New("position fraction must not be negative")
	}
	if p.DollarAmount < 0 {
		return errors.New("dollar amount must not be negative")
	}
	return nil
}

// TickerAnalysis bundles everything computed for one symbol in one cycle.
type TickerAnalysis struct {
	Symbol        string                 `json:"symbol"`
	CurrentPrice  float64                `json:"current_price"`
	PreviousClose float64                `json:"previous_close"`
	ChangePct     float64                `json:"change_pct"`
	Volume        float64                `json:"volume"`
	Indicators    IndicatorSnapshot      `json:"indicators"`
	Signal        SignalResult           `json:"signal"`
	Position      PositionRecommendation `json:"position"`
	AnalyzedAt    time.Time              `json:"analyzed_at"`
}

// CycleKind identifies which scheduled analysis produced a snapshot.
type CycleKind string

const (
	CycleMorning CycleKind = "morning"
	CycleEvening CycleKind = "evening"
	CycleWeekly  CycleKind = "weekly"
)

// RemovedPick records why a morning pick was dropped during the evening recheck.
type RemovedPick struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// CycleSnapshot is the persisted record of one analysis cycle.
type CycleSnapshot struct {
	ID             string           `json:"id"`
	Kind           CycleKind        `json:"kind"`
	Tickers        []TickerAnalysis `json:"tickers"`
	AdvisorSummary string           `json:"advisor_summary,omitempty"`
	Maintained     []string         `json:"maintained,omitempty"`
	Removed        []RemovedPick    `json:"removed,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
