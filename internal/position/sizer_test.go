package position

import (
	"math"
	"testing"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

func testSizer() *Sizer {
	return NewSizer(100000, 0.20, 0.02, 1000)
}

func bullishInputs() Inputs {
	return Inputs{
		Signal: models.SignalResult{Score: 8.5, Confidence: 0.9, Urgency: 3},
		Indicators: models.IndicatorSnapshot{
			RSI:       24,
			MACDCross: models.CrossGolden,
			Bollinger: models.BollingerBands{
				Upper:    105,
				Middle:   100,
				Lower:    95,
				Position: 0.1,
			},
			VolumeRatio: 3.5,
		},
		CurrentPrice: 100,
	}
}

func TestRecommendKellyBounds(t *testing.T) {
	s := testSizer()

	rec := s.Recommend(bullishInputs())
	if rec.KellyComponent < 0 || rec.KellyComponent > 0.25 {
		t.Errorf("kelly component out of range: %v", rec.KellyComponent)
	}
	if rec.WinProbability < 0.15 || rec.WinProbability > 0.85 {
		t.Errorf("win probability out of range: %v", rec.WinProbability)
	}

	// Score 8.5 with confidence 0.9 gives p = 0.765, kelly = 0.25 capped.
	if math.Abs(rec.WinProbability-0.765) > 1e-9 {
		t.Errorf("win probability = %v, want 0.765", rec.WinProbability)
	}
	if rec.KellyComponent != 0.25 {
		t.Errorf("kelly component = %v, want capped 0.25", rec.KellyComponent)
	}
}

func TestRecommendDollarCap(t *testing.T) {
	s := testSizer()
	maxAllowed := s.TotalCapital * s.MaxPositionPct

	rec := s.Recommend(bullishInputs())
	if rec.DollarAmount > maxAllowed {
		t.Errorf("dollar amount %v exceeds cap %v", rec.DollarAmount, maxAllowed)
	}
	if rec.DollarAmount < s.MinPosition {
		t.Errorf("dollar amount %v below floor %v", rec.DollarAmount, s.MinPosition)
	}
	if got := rec.PositionFraction; math.Abs(got-rec.DollarAmount/s.TotalCapital) > 1e-9 {
		t.Errorf("position fraction %v inconsistent with dollar amount %v", got, rec.DollarAmount)
	}
}

func TestRecommendFloorOnWeakSignal(t *testing.T) {
	s := testSizer()

	in := Inputs{
		Signal: models.SignalResult{Score: 5, Confidence: 0.4, Urgency: 0},
		Indicators: models.IndicatorSnapshot{
			RSI:       50,
			MACDCross: models.CrossBearish,
			Bollinger: models.BollingerBands{Upper: 140, Middle: 100, Lower: 60, Position: 0.5},
		},
		CurrentPrice: 100,
	}
	rec := s.Recommend(in)
	// High volatility plus a flat signal should pin the size to the floor.
	if rec.DollarAmount != s.MinPosition {
		t.Errorf("dollar amount = %v, want floor %v", rec.DollarAmount, s.MinPosition)
	}
	if rec.KellyComponent != 0 {
		t.Errorf("kelly component = %v, want 0 for win probability <= 0.5", rec.KellyComponent)
	}
}

func TestStrengths(t *testing.T) {
	cases := []struct {
		name     string
		in       Inputs
		wantBuy  int
		wantSell int
	}{
		{
			name: "strong buy setup",
			in: Inputs{
				Signal: models.SignalResult{Score: 8.5, Confidence: 0.9},
				Indicators: models.IndicatorSnapshot{
					RSI:         24,
					MACDCross:   models.CrossGolden,
					VolumeRatio: 3.5,
				},
			},
			// 4 (score) + 3 (rsi) + 2 (golden) + 2 (volume) capped at 10.
			wantBuy:  10,
			wantSell: 0,
		},
		{
			name: "strong sell setup",
			in: Inputs{
				Signal: models.SignalResult{Score: 1.5, Confidence: 0.9},
				Indicators: models.IndicatorSnapshot{
					RSI:       78,
					MACDCross: models.CrossDeath,
				},
				UrgentSell: 5,
			},
			wantBuy: 0,
			// 4 (score) + 3 (rsi) + 2 (death) + 3 (urgent capped).
			wantSell: 10,
		},
		{
			name: "neutral",
			in: Inputs{
				Signal: models.SignalResult{Score: 5.5, Confidence: 0.5},
				Indicators: models.IndicatorSnapshot{
					RSI:         50,
					MACDCross:   models.CrossBullish,
					VolumeRatio: 1.0,
				},
			},
			// 1 (score >= 5) + 1 (bullish).
			wantBuy:  2,
			wantSell: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buy, sell := strengths(tc.in)
			if buy != tc.wantBuy {
				t.Errorf("buy strength = %d, want %d", buy, tc.wantBuy)
			}
			if sell != tc.wantSell {
				t.Errorf("sell strength = %d, want %d", sell, tc.wantSell)
			}
		})
	}
}

func TestEntryTiming(t *testing.T) {
	cases := []struct {
		net     int
		urgency int
		want    models.EntryTiming
	}{
		{6, 0, models.EntryImmediate},
		{2, 5, models.EntryImmediate},
		{4, 0, models.EntrySoon},
		{1, 4, models.EntrySoon},
		{1, 0, models.EntryWait},
		{-2, 0, models.EntryReduce},
		{-5, 0, models.EntryExit},
	}
	for _, tc := range cases {
		if got := entryTiming(tc.net, tc.urgency); got != tc.want {
			t.Errorf("entryTiming(%d, %d) = %v, want %v", tc.net, tc.urgency, got, tc.want)
		}
	}
}

func TestExitTiming(t *testing.T) {
	cases := []struct {
		rsi     float64
		urgency int
		want    models.ExitTiming
	}{
		{85, 0, models.ExitImmediate},
		{50, 5, models.ExitImmediate},
		{72, 0, models.ExitPartial},
		{15, 0, models.ExitHold},
		{50, 0, models.ExitMonitor},
	}
	for _, tc := range cases {
		if got := exitTiming(tc.rsi, tc.urgency); got != tc.want {
			t.Errorf("exitTiming(%v, %d) = %v, want %v", tc.rsi, tc.urgency, got, tc.want)
		}
	}
}

func TestAction(t *testing.T) {
	cases := []struct {
		net        int
		confidence float64
		want       models.Action
	}{
		{7, 0.9, models.ActionStrongBuy},
		{7, 0.5, models.ActionWeakBuy},
		{4, 0.75, models.ActionBuy},
		{2, 0.3, models.ActionWeakBuy},
		{0, 0.9, models.ActionHold},
		{-2, 0.3, models.ActionWeakSell},
		{-4, 0.75, models.ActionSell},
		{-7, 0.9, models.ActionStrongSell},
	}
	for _, tc := range cases {
		if got := action(tc.net, tc.confidence); got != tc.want {
			t.Errorf("action(%d, %v) = %v, want %v", tc.net, tc.confidence, got, tc.want)
		}
	}
}

func TestProfitTargets(t *testing.T) {
	b := models.BollingerBands{Upper: 105, Middle: 100, Lower: 95}
	stop, take, ret := profitTargets(100, 0.05, b)

	if stop >= 100 {
		t.Errorf("stop loss %v should be below price", stop)
	}
	if take <= 100 {
		t.Errorf("take profit %v should be above price", take)
	}
	// ATR estimate is 10, so the 5% floor dominates the stop side and
	// the upper-band cap dominates the take side.
	if math.Abs(stop-95) > 1e-9 {
		t.Errorf("stop loss = %v, want 95", stop)
	}
	if math.Abs(take-107.1) > 1e-9 {
		t.Errorf("take profit = %v, want 107.1", take)
	}
	if math.Abs(ret-7.1) > 1e-9 {
		t.Errorf("expected return = %v, want 7.1", ret)
	}
}

func TestRiskLevel(t *testing.T) {
	cases := []struct {
		vol  float64
		want string
	}{
		{0.25, "EXTREME"},
		{0.17, "VERY_HIGH"},
		{0.12, "HIGH"},
		{0.07, "MEDIUM"},
		{0.03, "LOW"},
	}
	for _, tc := range cases {
		if got := riskLevel(tc.vol); got != tc.want {
			t.Errorf("riskLevel(%v) = %q, want %q", tc.vol, got, tc.want)
		}
	}
}
