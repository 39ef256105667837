// Package analyzer orchestrates the scheduled analysis cycles: candidate
// discovery, per-ticker technical analysis, persistence, reporting, and
// handover of the watched set to the risk monitor.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alphaseeker/alphaseeker/internal/advisor"
	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/indicators"
	"github.com/alphaseeker/alphaseeker/internal/logger"
	"github.com/alphaseeker/alphaseeker/internal/models"
	"github.com/alphaseeker/alphaseeker/internal/position"
	"github.com/alphaseeker/alphaseeker/internal/report"
	"github.com/alphaseeker/alphaseeker/internal/signal"
)

const (
	dailyLookback    = "6mo"
	advisorSource    = "advisor"
	weeklyAlertLimit = 20
)

// Fallback candidates when the advisor is unavailable and nothing has been
// discovered yet.
var defaultCandidates = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "TSLA", "AMD"}

// MarketData provides bars for analysis and symbol validation.
type MarketData interface {
	GetBars(ctx context.Context, symbol, lookback string, interval models.Interval) (*models.BarSeries, error)
}

// Advisor proposes candidates and weekly outlooks.
type Advisor interface {
	Enabled() bool
	ProposeCandidates(ctx context.Context, maxTickers int) (string, error)
	WeeklyOutlook(ctx context.Context) (string, error)
}

// Store persists cycles, the watchlist, and discovered tickers.
type Store interface {
	SaveCycle(cycle *models.CycleSnapshot) error
	LoadLatestCycle(kind models.CycleKind) (*models.CycleSnapshot, error)
	ReplaceWatchlist(symbols []string) error
	LoadWatchlist() ([]string, error)
	RememberTicker(symbol, source string) error
	DiscoveredTickers() ([]string, error)
	RecentAlerts(limit int) ([]models.Alert, error)
}

// Notifier delivers rendered reports.
type Notifier interface {
	SendReport(report string) error
}

// WatchSetter receives the watched set after each cycle.
type WatchSetter interface {
	ReplaceWatched(symbols []string)
}

// Analyzer runs the morning, evening, and weekly cycles.
type Analyzer struct {
	feed     MarketData
	advisor  Advisor
	store    Store
	notifier Notifier
	watcher  WatchSetter
	engine   *indicators.Engine
	sizer    *position.Sizer
	cfg      config.AnalysisConfig
}

// New wires an analyzer from its collaborators.
func New(feed MarketData, adv Advisor, store Store, notifier Notifier, watcher WatchSetter,
	minDailyBars int, cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		feed:     feed,
		advisor:  adv,
		store:    store,
		notifier: notifier,
		watcher:  watcher,
		engine:   indicators.NewEngine(minDailyBars),
		sizer: position.NewSizer(cfg.TotalCapital, cfg.MaxPositionPct,
			cfg.RiskPerTrade, cfg.MinPosition),
		cfg: cfg,
	}
}

// AnalyzeTicker runs the full per-symbol pipeline: bars, indicators, signal
// score, and position sizing.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, symbol string) (models.TickerAnalysis, error) {
	series, err := a.feed.GetBars(ctx, symbol, dailyLookback, models.IntervalDaily)
	if err != nil {
		return models.TickerAnalysis{}, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}

	ind, err := a.engine.Compute(series)
	if err != nil {
		return models.TickerAnalysis{}, fmt.Errorf("indicators for %s: %w", symbol, err)
	}

	closes := series.Closes()
	last := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	changePct := 0.0
	if prev != 0 {
		changePct = (last - prev) / prev * 100
	}

	sig := signal.Score(ind, signal.Context{CurrentPrice: last, ChangePct: changePct})
	pos := a.sizer.Recommend(position.Inputs{
		Signal:       sig,
		Indicators:   ind,
		CurrentPrice: last,
	})

	return models.TickerAnalysis{
		Symbol:        symbol,
		CurrentPrice:  last,
		PreviousClose: prev,
		ChangePct:     changePct,
		Volume:        series.Last().Volume,
		Indicators:    ind,
		Signal:        sig,
		Position:      pos,
		AnalyzedAt:    time.Now(),
	}, nil
}

// RunMorning executes the morning cycle: discover candidates, analyze them,
// persist and report, and hand the analyzed set to the monitor.
func (a *Analyzer) RunMorning(ctx context.Context) (*models.CycleSnapshot, error) {
	candidates, summary := a.discoverCandidates(ctx)
	logger.Info("Morning cycle: %d candidates", len(candidates))

	var analyses []models.TickerAnalysis
	var watched []string
	for _, symbol := range candidates {
		if len(analyses) >= a.cfg.MaxTickers {
			break
		}
		ta, err := a.AnalyzeTicker(ctx, symbol)
		if err != nil {
			logger.Warn("Skipping %s: %v", symbol, err)
			continue
		}
		if ta.Signal.Score < a.cfg.MinScore {
			logger.Debug("Dropping %s: score %.1f below minimum %.1f",
				symbol, ta.Signal.Score, a.cfg.MinScore)
			continue
		}
		analyses = append(analyses, ta)
		watched = append(watched, symbol)
	}

	cycle := &models.CycleSnapshot{
		ID:             uuid.New().String(),
		Kind:           models.CycleMorning,
		Tickers:        analyses,
		AdvisorSummary: summary,
		Maintained:     watched,
		Timestamp:      time.Now(),
	}
	if err := a.store.SaveCycle(cycle); err != nil {
		return nil, fmt.Errorf("persist morning cycle: %w", err)
	}

	if err := a.notifier.SendReport(report.Morning(cycle)); err != nil {
		logger.Error("Failed to deliver morning report: %v", err)
	}

	a.setWatched(watched)
	return cycle, nil
}

// RunEvening re-analyzes the morning picks and drops the ones that
// deteriorated: large gaps, weak scores, or a fresh death cross.
func (a *Analyzer) RunEvening(ctx context.Context) (*models.CycleSnapshot, error) {
	morning, err := a.store.LoadLatestCycle(models.CycleMorning)
	if err != nil {
		return nil, fmt.Errorf("load morning cycle: %w", err)
	}
	if morning == nil || len(morning.Tickers) == 0 {
		return nil, fmt.Errorf("no morning cycle to recheck")
	}

	var analyses []models.TickerAnalysis
	var maintained []string
	var removed []models.RemovedPick
	for _, pick := range morning.Tickers {
		ta, err := a.AnalyzeTicker(ctx, pick.Symbol)
		if err != nil {
			logger.Warn("Recheck failed for %s, keeping morning state: %v", pick.Symbol, err)
			analyses = append(analyses, pick)
			maintained = append(maintained, pick.Symbol)
			continue
		}

		if reason, drop := a.shouldDrop(ta); drop {
			removed = append(removed, models.RemovedPick{Symbol: ta.Symbol, Reason: reason})
			continue
		}
		analyses = append(analyses, ta)
		maintained = append(maintained, ta.Symbol)
	}

	cycle := &models.CycleSnapshot{
		ID:         uuid.New().String(),
		Kind:       models.CycleEvening,
		Tickers:    analyses,
		Maintained: maintained,
		Removed:    removed,
		Timestamp:  time.Now(),
	}
	if err := a.store.SaveCycle(cycle); err != nil {
		return nil, fmt.Errorf("persist evening cycle: %w", err)
	}

	if err := a.notifier.SendReport(report.Evening(cycle)); err != nil {
		logger.Error("Failed to deliver evening report: %v", err)
	}

	a.setWatched(maintained)
	return cycle, nil
}

// RunWeekly delivers the advisor's strategy note for the week.
func (a *Analyzer) RunWeekly(ctx context.Context) error {
	var outlook string
	if a.advisor != nil && a.advisor.Enabled() {
		text, err := a.advisor.WeeklyOutlook(ctx)
		if err != nil {
			logger.Warn("Weekly outlook unavailable: %v", err)
		} else {
			outlook = text
		}
	}

	watched, err := a.store.LoadWatchlist()
	if err != nil {
		logger.Warn("Failed to load watchlist: %v", err)
	}

	alerts, err := a.store.RecentAlerts(weeklyAlertLimit)
	if err != nil {
		logger.Warn("Failed to load recent alerts: %v", err)
	}

	return a.notifier.SendReport(report.Weekly(outlook, watched, alerts, time.Now()))
}

// shouldDrop applies the evening removal rules to a recheck result.
func (a *Analyzer) shouldDrop(ta models.TickerAnalysis) (string, bool) {
	if gap := ta.ChangePct; gap > a.cfg.LargeGapThreshold || gap < -a.cfg.LargeGapThreshold {
		return fmt.Sprintf("moved %.1f%% intraday", gap), true
	}
	if ta.Signal.Score < a.cfg.MinScore {
		return fmt.Sprintf("score dropped to %.1f", ta.Signal.Score), true
	}
	if ta.Indicators.MACDCross == models.CrossDeath {
		return "fresh death cross", true
	}
	return "", false
}

// discoverCandidates asks the advisor for tickers, validating each symbol
// against the feed before accepting it. With the advisor unavailable it falls
// back to previously discovered tickers, then to the default list.
func (a *Analyzer) discoverCandidates(ctx context.Context) ([]string, string) {
	if a.advisor == nil || !a.advisor.Enabled() {
		return a.fallbackCandidates(), ""
	}

	answer, err := a.advisor.ProposeCandidates(ctx, a.cfg.MaxTickers)
	if err != nil {
		logger.Warn("Advisor unavailable, using fallback candidates: %v", err)
		return a.fallbackCandidates(), ""
	}

	var valid []string
	for _, symbol := range advisor.ExtractTickers(answer) {
		if _, err := a.feed.GetBars(ctx, symbol, "5d", models.IntervalDaily); err != nil {
			logger.Debug("Rejecting extracted symbol %s: %v", symbol, err)
			continue
		}
		valid = append(valid, symbol)
		if err := a.store.RememberTicker(symbol, advisorSource); err != nil {
			logger.Warn("Failed to remember ticker %s: %v", symbol, err)
		}
	}

	if len(valid) == 0 {
		logger.Warn("No valid tickers extracted from advisor answer")
		return a.fallbackCandidates(), advisor.Summary(answer, 2000)
	}
	return valid, advisor.Summary(answer, 2000)
}

func (a *Analyzer) fallbackCandidates() []string {
	if discovered, err := a.store.DiscoveredTickers(); err == nil && len(discovered) > 0 {
		if len(discovered) > a.cfg.MaxTickers {
			discovered = discovered[:a.cfg.MaxTickers]
		}
		return discovered
	}
	return defaultCandidates
}

func (a *Analyzer) setWatched(symbols []string) {
	if err := a.store.ReplaceWatchlist(symbols); err != nil {
		logger.Error("Failed to persist watchlist: %v", err)
	}
	if a.watcher != nil {
		a.watcher.ReplaceWatched(symbols)
	}
}
