package models

import "time"

// Severity is the delivery tier an alert is dispatched with.
type Severity string

const (
	SeverityNormal    Severity = "normal"
	SeverityUrgent    Severity = "urgent"
	SeverityEmergency Severity = "emergency"
)

// Side is the trading direction an alert suggests, if any.
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideWatch Side = "watch"
)

// AlertType names the threshold rule that fired.
type AlertType string

const (
	AlertPriceCrash      AlertType = "PRICE_CRASH"
	AlertGapDown         AlertType = "GAP_DOWN"
	AlertGapUp           AlertType = "GAP_UP"
	AlertRSIOversold     AlertType = "RSI_OVERSOLD"
	AlertRSIOverbought   AlertType = "RSI_OVERBOUGHT"
	AlertVolumeSpikeUp   AlertType = "VOLUME_SPIKE_UP"
	AlertVolumeSpikeDown AlertType = "VOLUME_SPIKE_DOWN"
	AlertVolumeSpike     AlertType = "VOLUME_SPIKE"
	AlertVolumeDry       AlertType = "VOLUME_DRY"
	AlertSupportBreak    AlertType = "SUPPORT_BREAK"
	AlertResistanceBreak AlertType = "RESISTANCE_BREAK"
	AlertGoldenCross     AlertType = "GOLDEN_CROSS"
	AlertDeathCross      AlertType = "DEATH_CROSS"
	AlertMarketCrash     AlertType = "MARKET_CRASH"
	AlertMarketDecline   AlertType = "MARKET_DECLINE"
	AlertMarketRally     AlertType = "MARKET_RALLY"
	AlertVolExtreme      AlertType = "VIX_EXTREME"
	AlertVolElevated     AlertType = "VIX_SPIKE"
	AlertVolCalm         AlertType = "VIX_LOW"
	AlertMonitorDegraded AlertType = "MONITOR_DEGRADED"
)

// Alert is a single threshold-rule hit raised by the risk monitor.
type Alert struct {
	Symbol     string    `json:"symbol"`
	Type       AlertType `json:"type"`
	Severity   Severity  `json:"severity"`
	Side       Side      `json:"side"`
	Value      float64   `json:"value"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detected_at"`
}

// Key is the deduplication key: one suppression window per symbol and rule.
func (a *Alert) Key() string {
	return a.Symbol + ":" + string(a.Type)
}
