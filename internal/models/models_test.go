package models

import (
	"testing"
	"time"
)

func validSeries() *BarSeries {
	base := time.Now().Add(-48 * time.Hour)
	return &BarSeries{
		Symbol:   "AAPL",
		Interval: IntervalDaily,
		Bars: []Bar{
			{Timestamp: base, Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
			{Timestamp: base.Add(24 * time.Hour), Open: 101, High: 103, Low: 100, Close: 102, Volume: 1200},
		},
	}
}

func TestBarSeriesValidate(t *testing.T) {
	if err := validSeries().Validate(); err != nil {
		t.Errorf("valid series rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*BarSeries)
	}{
		{"empty symbol", func(s *BarSeries) { s.Symbol = "" }},
		{"unordered timestamps", func(s *BarSeries) {
			s.Bars[1].Timestamp = s.Bars[0].Timestamp.Add(-time.Hour)
		}},
		{"negative volume", func(s *BarSeries) { s.Bars[0].Volume = -1 }},
		{"high below low", func(s *BarSeries) { s.Bars[0].High = 90 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSeries()
			tc.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBarSeriesAccessors(t *testing.T) {
	s := validSeries()
	if got := s.Closes(); len(got) != 2 || got[1] != 102 {
		t.Errorf("Closes() = %v", got)
	}
	if got := s.Last(); got.Close != 102 {
		t.Errorf("Last().Close = %v", got.Close)
	}
}

func TestBollingerWidth(t *testing.T) {
	b := BollingerBands{Upper: 110, Middle: 100, Lower: 90}
	if got := b.Width(); got != 0.2 {
		t.Errorf("Width() = %v, want 0.2", got)
	}
	zero := BollingerBands{}
	if got := zero.Width(); got != 0 {
		t.Errorf("zero bands Width() = %v, want 0", got)
	}
}

func TestAlertKey(t *testing.T) {
	a := Alert{Symbol: "AAPL", Type: AlertPriceCrash}
	if got := a.Key(); got != "AAPL:PRICE_CRASH" {
		t.Errorf("Key() = %q", got)
	}
}

func TestSignalResultValidate(t *testing.T) {
	good := SignalResult{Score: 7.5, Confidence: 0.8, Urgency: 3}
	if err := good.Validate(); err != nil {
		t.Errorf("valid result rejected: %v", err)
	}
	bad := []SignalResult{
		{Score: -1, Confidence: 0.5},
		{Score: 11, Confidence: 0.5},
		{Score: 5, Confidence: 1.5},
		{Score: 5, Confidence: 0.5, Urgency: 6},
	}
	for i, r := range bad {
		if err := r.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestPositionRecommendationValidate(t *testing.T) {
	good := PositionRecommendation{
		Action:           ActionBuy,
		PositionFraction: 0.04,
		DollarAmount:     4000,
		KellyComponent:   0.2,
		WinProbability:   0.7,
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid recommendation rejected: %v", err)
	}

	overKelly := good
	overKelly.KellyComponent = 0.3
	if err := overKelly.Validate(); err == nil {
		t.Error("kelly above cap should fail validation")
	}

	lowProb := good
	lowProb.WinProbability = 0.1
	if err := lowProb.Validate(); err == nil {
		t.Error("win probability below floor should fail validation")
	}
}
