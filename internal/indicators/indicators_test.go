package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

func seriesFrom(closes []float64) *models.BarSeries {
	bars := make([]models.Bar, len(closes))
	base := time.Now().Add(-time.Duration(len(closes)) * 24 * time.Hour)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c * 1.02,
			Low:       c * 0.98,
			Close:     c,
			Volume:    1_000_000,
		}
	}
	return &models.BarSeries{Symbol: "TEST", Interval: models.IntervalDaily, Bars: bars}
}

func rampOf(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRSIBounds(t *testing.T) {
	cases := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", rampOf(20, 100, 1), 100},
		{"all losses", rampOf(20, 100, -1), 0},
		{"flat", rampOf(20, 100, 0), 50},
		{"too short", []float64{100, 101}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RSI(tc.closes, RSIPeriod)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("RSI = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRSIMixedStaysInRange(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 102, 104, 103, 105, 104, 106, 105, 107, 106, 108, 107, 109}
	got := RSI(closes, RSIPeriod)
	if got < 0 || got > 100 {
		t.Fatalf("RSI out of range: %v", got)
	}
	if got <= 50 {
		t.Errorf("net-gaining series should have RSI above 50, got %v", got)
	}
}

func TestMACDCrossStates(t *testing.T) {
	// Decline then sharp rebound: somewhere along the rebound the MACD line
	// must cross above its signal exactly once before staying bullish.
	closes := append(rampOf(40, 200, -1), rampOf(20, 160, 3)...)

	goldens := 0
	lastState := models.CrossState("")
	for i := MACDSlow; i <= len(closes); i++ {
		_, _, state := MACD(closes[:i], MACDFast, MACDSlow, MACDSignalSpan)
		if state == models.CrossGolden {
			goldens++
		}
		lastState = state
	}
	if goldens == 0 {
		t.Error("rebound series should produce a golden cross")
	}
	if lastState != models.CrossBullish {
		t.Errorf("final state = %v, want bullish after the rebound", lastState)
	}
}

func TestMACDDeathCross(t *testing.T) {
	closes := append(rampOf(40, 100, 1), rampOf(20, 140, -3)...)

	deaths := 0
	for i := MACDSlow; i <= len(closes); i++ {
		if _, _, state := MACD(closes[:i], MACDFast, MACDSlow, MACDSignalSpan); state == models.CrossDeath {
			deaths++
		}
	}
	if deaths == 0 {
		t.Error("breakdown series should produce a death cross")
	}
}

func TestBollingerPosition(t *testing.T) {
	closes := rampOf(30, 100, 1)
	b := Bollinger(closes, BollingerPeriod, BollingerStd)

	if b.Upper <= b.Middle || b.Middle <= b.Lower {
		t.Fatalf("band ordering broken: %+v", b)
	}
	if b.Position < 0 || b.Position > 1 {
		t.Errorf("position out of range: %v", b.Position)
	}
	// The newest close of a rising ramp sits in the upper half.
	if b.Position <= 0.5 {
		t.Errorf("rising ramp position = %v, want above 0.5", b.Position)
	}
}

func TestBollingerZeroWidth(t *testing.T) {
	b := Bollinger(rampOf(30, 100, 0), BollingerPeriod, BollingerStd)
	if b.Position != 0.5 {
		t.Errorf("flat series position = %v, want 0.5", b.Position)
	}
	if b.Width() != 0 {
		t.Errorf("flat series width = %v, want 0", b.Width())
	}
}

func TestBollingerShortSeries(t *testing.T) {
	b := Bollinger([]float64{100, 101, 102}, BollingerPeriod, BollingerStd)
	if b.Position != 0.5 {
		t.Errorf("short series position = %v, want 0.5", b.Position)
	}
	if math.Abs(b.Upper-102*1.05) > 1e-9 || math.Abs(b.Lower-102*0.95) > 1e-9 {
		t.Errorf("short series should use the synthetic envelope, got %+v", b)
	}
}

func TestSMA(t *testing.T) {
	closes := rampOf(10, 1, 1) // 1..10
	if got := SMA(closes, 5); math.Abs(got-8) > 1e-9 {
		t.Errorf("SMA(5) = %v, want 8", got)
	}
	if got := SMA(closes, 20); got != 10 {
		t.Errorf("short window should fall back to last price, got %v", got)
	}
}

func TestVolumeRatio(t *testing.T) {
	flat := rampOf(25, 1000, 0)
	if got := VolumeRatio(flat, VolumeWindow); math.Abs(got-1) > 1e-9 {
		t.Errorf("flat volumes ratio = %v, want 1", got)
	}

	zero := rampOf(25, 0, 0)
	if got := VolumeRatio(zero, VolumeWindow); got != 1 {
		t.Errorf("zero average ratio = %v, want default 1", got)
	}

	spiked := rampOf(25, 1000, 0)
	spiked[len(spiked)-1] = 10000
	if got := VolumeRatio(spiked, VolumeWindow); got <= 3 {
		t.Errorf("spiked ratio = %v, want above 3", got)
	}
}

func TestPriceRange(t *testing.T) {
	closes := []float64{100, 105, 95, 110, 98}
	s := seriesFrom(closes)
	support, resistance := PriceRange(s.Highs(), s.Lows(), RangePeriod)

	if math.Abs(support-95*0.98) > 1e-9 {
		t.Errorf("support = %v, want lowest low %v", support, 95*0.98)
	}
	if math.Abs(resistance-110*1.02) > 1e-9 {
		t.Errorf("resistance = %v, want highest high %v", resistance, 110*1.02)
	}
}

func TestEngineCompute(t *testing.T) {
	e := NewEngine(50)
	s := seriesFrom(rampOf(60, 100, 0.5))

	snap, err := e.Compute(s)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if err := snap.Validate(); err != nil {
		t.Errorf("invalid snapshot: %v", err)
	}

	// Compute has no hidden state: running it twice gives identical output.
	again, err := e.Compute(s)
	if err != nil {
		t.Fatalf("Compute again: %v", err)
	}
	if snap != again {
		t.Error("Compute is not deterministic for the same series")
	}
}

func TestEngineComputeInsufficientData(t *testing.T) {
	e := NewEngine(50)
	_, err := e.Compute(seriesFrom(rampOf(10, 100, 1)))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}
