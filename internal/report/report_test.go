package report

import (
	"strings"
	"testing"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

func sampleCycle(kind models.CycleKind) *models.CycleSnapshot {
	return &models.CycleSnapshot{
		ID:   "cycle-1",
		Kind: kind,
		Tickers: []models.TickerAnalysis{
			{
				Symbol:       "AAPL",
				CurrentPrice: 187.50,
				ChangePct:    1.2,
				Indicators:   models.IndicatorSnapshot{RSI: 42},
				Signal:       models.SignalResult{Score: 6.0, Confidence: 0.6, Signals: []string{"RSI buy zone"}},
				Position: models.PositionRecommendation{
					Action:       models.ActionBuy,
					DollarAmount: 4000,
					RiskLevel:    "MEDIUM",
					EntryTiming:  models.EntrySoon,
					StopLoss:     178.12,
					TakeProfit:   196.87,
				},
			},
			{
				Symbol:       "NVDA",
				CurrentPrice: 920.00,
				ChangePct:    3.4,
				Indicators:   models.IndicatorSnapshot{RSI: 35},
				Signal:       models.SignalResult{Score: 8.5, Confidence: 0.85},
				Position: models.PositionRecommendation{
					Action:       models.ActionStrongBuy,
					DollarAmount: 12000,
					RiskLevel:    "HIGH",
					EntryTiming:  models.EntryImmediate,
					StopLoss:     874.00,
					TakeProfit:   1012.00,
				},
			},
		},
		AdvisorSummary: "Semis lead on AI demand.",
		Timestamp:      time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestMorningRanksByScore(t *testing.T) {
	text := Morning(sampleCycle(models.CycleMorning))

	nvda := strings.Index(text, "NVDA")
	aapl := strings.Index(text, "AAPL")
	if nvda == -1 || aapl == -1 {
		t.Fatalf("report missing symbols:\n%s", text)
	}
	if nvda > aapl {
		t.Error("higher-scored NVDA should rank above AAPL")
	}
	if !strings.Contains(text, "Semis lead on AI demand.") {
		t.Error("advisor summary missing from report")
	}
	if !strings.Contains(text, "$16000 across 2 picks") {
		t.Errorf("allocation total missing:\n%s", text)
	}
}

func TestMorningEmpty(t *testing.T) {
	cycle := sampleCycle(models.CycleMorning)
	cycle.Tickers = nil
	cycle.AdvisorSummary = ""

	text := Morning(cycle)
	if !strings.Contains(text, "No candidates") {
		t.Errorf("empty cycle should say so:\n%s", text)
	}
}

func TestEveningSections(t *testing.T) {
	cycle := sampleCycle(models.CycleEvening)
	cycle.Maintained = []string{"NVDA"}
	cycle.Removed = []models.RemovedPick{
		{Symbol: "AAPL", Reason: "score dropped below 4"},
	}

	text := Evening(cycle)
	if !strings.Contains(text, "Maintained (1): NVDA") {
		t.Errorf("maintained section missing:\n%s", text)
	}
	if !strings.Contains(text, "AAPL: score dropped below 4") {
		t.Errorf("removed section missing:\n%s", text)
	}
}

func TestWeekly(t *testing.T) {
	alerts := []models.Alert{
		{Symbol: "TSLA", Type: models.AlertPriceCrash, Message: "TSLA down 11.0% from previous close"},
	}
	text := Weekly("Rates decision on Wednesday.", []string{"NVDA", "AAPL"}, alerts, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(text, "Rates decision on Wednesday.") {
		t.Errorf("outlook missing:\n%s", text)
	}
	if !strings.Contains(text, "NVDA, AAPL") {
		t.Errorf("watchlist missing:\n%s", text)
	}
	if !strings.Contains(text, "TSLA:PRICE_CRASH") {
		t.Errorf("alert summary missing:\n%s", text)
	}

	empty := Weekly("", nil, nil, time.Now())
	if !strings.Contains(empty, "No outlook") {
		t.Errorf("empty outlook should say so:\n%s", empty)
	}
	if strings.Contains(empty, "Recent alerts") {
		t.Errorf("alert section should be omitted when empty:\n%s", empty)
	}
}
