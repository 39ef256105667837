// Package report renders analysis cycles into Markdown for delivery.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// Morning renders the morning analysis report: candidates ranked by score
// with signal, sizing, and risk levels.
func Morning(cycle *models.CycleSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌅 Morning Analysis %s\n\n", cycle.Timestamp.Format(timeLayout))

	if cycle.AdvisorSummary != "" {
		fmt.Fprintf(&b, "Research notes:\n%s\n\n", cycle.AdvisorSummary)
	}

	picks := rankedPicks(cycle.Tickers)
	if len(picks) == 0 {
		b.WriteString("No candidates passed analysis today.\n")
		return b.String()
	}

	var totalAllocation float64
	for i, ta := range picks {
		writePick(&b, i+1, ta)
		if isBuy(ta.Position.Action) {
			totalAllocation += ta.Position.DollarAmount
		}
	}

	fmt.Fprintf(&b, "Suggested total allocation: $%.0f across %d picks\n",
		totalAllocation, len(picks))
	return b.String()
}

// Evening renders the recheck report: which morning picks held up and which
// were dropped.
func Evening(cycle *models.CycleSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌆 Evening Recheck %s\n\n", cycle.Timestamp.Format(timeLayout))

	if len(cycle.Maintained) > 0 {
		fmt.Fprintf(&b, "Maintained (%d): %s\n\n",
			len(cycle.Maintained), strings.Join(cycle.Maintained, ", "))
	} else {
		b.WriteString("No picks maintained.\n\n")
	}

	if len(cycle.Removed) > 0 {
		b.WriteString("Removed:\n")
		for _, r := range cycle.Removed {
			fmt.Fprintf(&b, "- %s: %s\n", r.Symbol, r.Reason)
		}
		b.WriteString("\n")
	}

	for i, ta := range rankedPicks(cycle.Tickers) {
		writePick(&b, i+1, ta)
	}
	return b.String()
}

// Weekly renders the weekly strategy note around the advisor's outlook.
func Weekly(outlook string, watched []string, alerts []models.Alert, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Weekly Outlook %s\n\n", at.Format("2006-01-02"))

	if outlook != "" {
		b.WriteString(outlook)
		b.WriteString("\n\n")
	} else {
		b.WriteString("No outlook available this week.\n\n")
	}

	if len(watched) > 0 {
		fmt.Fprintf(&b, "Current watchlist: %s\n", strings.Join(watched, ", "))
	}

	if len(alerts) > 0 {
		fmt.Fprintf(&b, "\nRecent alerts (%d):\n", len(alerts))
		for _, a := range alerts {
			fmt.Fprintf(&b, "- %s %s: %s\n", a.DetectedAt.Format("01-02 15:04"), a.Key(), a.Message)
		}
	}
	return b.String()
}

func writePick(b *strings.Builder, rank int, ta models.TickerAnalysis) {
	fmt.Fprintf(b, "%d. %s  $%.2f (%+.1f%%)\n", rank, ta.Symbol, ta.CurrentPrice, ta.ChangePct)
	fmt.Fprintf(b, "   Score %.1f/10, confidence %.0f%%, RSI %.0f\n",
		ta.Signal.Score, ta.Signal.Confidence*100, ta.Indicators.RSI)
	if len(ta.Signal.Signals) > 0 {
		fmt.Fprintf(b, "   Signals: %s\n", strings.Join(ta.Signal.Signals, "; "))
	}
	fmt.Fprintf(b, "   %s, size $%.0f (%s risk), entry %s\n",
		ta.Position.Action, ta.Position.DollarAmount, ta.Position.RiskLevel, ta.Position.EntryTiming)
	fmt.Fprintf(b, "   Stop $%.2f, target $%.2f (%+.1f%%)\n\n",
		ta.Position.StopLoss, ta.Position.TakeProfit, ta.Position.ExpectedReturnPct)
}

func rankedPicks(tickers []models.TickerAnalysis) []models.TickerAnalysis {
	picks := make([]models.TickerAnalysis, len(tickers))
	copy(picks, tickers)
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Signal.Score > picks[j].Signal.Score
	})
	return picks
}

func isBuy(a models.Action) bool {
	switch a {
	case models.ActionStrongBuy, models.ActionBuy, models.ActionWeakBuy:
		return true
	default:
		return false
	}
}
