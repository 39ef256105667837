// Package monitor runs the continuous risk watcher: three independent loops
// over the watched portfolio, the broad market indices, and the volatility
// index, each raising deduplicated alerts through a dispatcher.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/indicators"
	"github.com/alphaseeker/alphaseeker/internal/logger"
	"github.com/alphaseeker/alphaseeker/internal/models"
)

const (
	crashThreshold     = -10.0
	gapDownThreshold   = -5.0
	gapUpThreshold     = 10.0
	rsiOversoldLevel   = 20.0
	rsiOverboughtLevel = 80.0
	volumeSpikeRatio   = 3.0
	volumeDryRatio     = 0.5
	spikeDirectionMove = 2.0
	supportBreakPct    = 0.98
	resistanceBreakPct = 1.02
	marketCrashPct     = -3.0
	marketDeclinePct   = -1.5
	marketRallyPct     = 2.0
	vixExtremeLevel    = 35.0
	vixElevatedLevel   = 30.0
	vixCalmLevel       = 15.0
	hourlyEMAFast      = 12
	hourlyEMASlow      = 26
)

// Status is the monitor lifecycle state.
type Status string

const (
	StatusStopped    Status = "STOPPED"
	StatusMonitoring Status = "MONITORING"
)

// DataSource provides OHLCV bars and intraday prices for monitored symbols.
type DataSource interface {
	GetBars(ctx context.Context, symbol, lookback string, interval models.Interval) (*models.BarSeries, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
}

// Dispatcher delivers an alert and reports whether delivery succeeded.
type Dispatcher interface {
	SendAlert(alert models.Alert) bool
}

// AlertRecorder persists dispatched alerts, delivered or not.
type AlertRecorder interface {
	RecordAlert(alert models.Alert, delivered bool) error
}

// Monitor is the three-loop risk watcher. All exported methods are safe for
// concurrent use.
type Monitor struct {
	feed       DataSource
	dispatcher Dispatcher
	recorder   AlertRecorder
	cfg        config.MonitorConfig

	mu       sync.Mutex
	status   Status
	watched  []string
	lastSent map[string]time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped monitor.
func New(feed DataSource, dispatcher Dispatcher, recorder AlertRecorder, cfg config.MonitorConfig) *Monitor {
	return &Monitor{
		feed:       feed,
		dispatcher: dispatcher,
		recorder:   recorder,
		cfg:        cfg,
		status:     StatusStopped,
		lastSent:   make(map[string]time.Time),
	}
}

// Status reports the current lifecycle state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Watched returns a copy of the currently watched symbols.
func (m *Monitor) Watched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.watched))
	copy(out, m.watched)
	return out
}

// ReplaceWatched swaps the watched set for the given symbols. The previous
// set is discarded, not merged.
func (m *Monitor) ReplaceWatched(symbols []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched = make([]string, len(symbols))
	copy(m.watched, symbols)
	logger.Info("Watched set replaced: %d symbols", len(symbols))
}

// Start launches the three monitoring loops over the given watched set.
// It returns false without starting anything when the set is empty or the
// monitor is already running.
func (m *Monitor) Start(ctx context.Context, watched []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(watched) == 0 {
		logger.Warn("Refusing to start monitor with empty watched set")
		return false
	}
	if m.status == StatusMonitoring {
		return false
	}

	m.watched = make([]string, len(watched))
	copy(m.watched, watched)
	m.status = StatusMonitoring

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(3)
	go m.runLoop(loopCtx, "portfolio", m.cfg.PortfolioInterval, m.checkPortfolio)
	go m.runLoop(loopCtx, "market", m.cfg.MarketInterval, m.checkMarket)
	go m.runLoop(loopCtx, "volatility", m.cfg.VolatilityInterval, m.checkVolatility)

	logger.Info("Monitor started: %d watched symbols, intervals %v/%v/%v",
		len(watched), m.cfg.PortfolioInterval, m.cfg.MarketInterval, m.cfg.VolatilityInterval)
	return true
}

// Stop cancels the loops and waits for in-flight iterations to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.status != StatusMonitoring {
		m.mu.Unlock()
		return
	}
	m.status = StatusStopped
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	logger.Info("Monitor stopped")
}

func (m *Monitor) runLoop(ctx context.Context, name string, interval time.Duration, check func(context.Context)) {
	defer m.wg.Done()

	m.runChecked(ctx, name, check)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runChecked(ctx, name, check)
		}
	}
}

// runChecked contains a panicking iteration so one bad check never takes
// down the process or the sibling loops. The loop itself keeps running on
// its ticker; the failure is surfaced as an emergency alert.
func (m *Monitor) runChecked(ctx context.Context, name string, check func(context.Context)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error("Monitor %s loop iteration panicked: %v", name, r)
		m.dispatch(models.Alert{
			Symbol:     name,
			Type:       models.AlertMonitorDegraded,
			Severity:   models.SeverityEmergency,
			Side:       models.SideWatch,
			Message:    fmt.Sprintf("Risk monitor %s loop failed an iteration: %v", name, r),
			DetectedAt: time.Now(),
		})
	}()
	check(ctx)
}

// checkPortfolio evaluates every watched symbol. A failure on one symbol
// never blocks the others.
func (m *Monitor) checkPortfolio(ctx context.Context) {
	for _, symbol := range m.Watched() {
		alerts, err := m.evaluateSymbol(ctx, symbol)
		if err != nil {
			logger.Warn("Portfolio check failed for %s: %v", symbol, err)
			continue
		}
		for _, alert := range alerts {
			m.dispatch(alert)
		}
	}
}

func (m *Monitor) evaluateSymbol(ctx context.Context, symbol string) ([]models.Alert, error) {
	daily, err := m.feed.GetBars(ctx, symbol, "1mo", models.IntervalDaily)
	if err != nil {
		return nil, fmt.Errorf("daily bars: %w", err)
	}
	if daily.Len() < 2 {
		return nil, fmt.Errorf("not enough daily bars for %s", symbol)
	}

	hourly, err := m.feed.GetBars(ctx, symbol, "5d", models.IntervalHourly)
	if err != nil {
		logger.Debug("Hourly bars unavailable for %s: %v", symbol, err)
		hourly = nil
	}

	return EvaluateSymbol(symbol, daily, hourly), nil
}

// EvaluateSymbol applies the per-symbol threshold rules to the given bars.
func EvaluateSymbol(symbol string, daily, hourly *models.BarSeries) []models.Alert {
	var alerts []models.Alert
	now := time.Now()

	closes := daily.Closes()
	last := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	changePct := 0.0
	if prev != 0 {
		changePct = (last - prev) / prev * 100
	}

	add := func(t models.AlertType, sev models.Severity, side models.Side, value float64, msg string) {
		alerts = append(alerts, models.Alert{
			Symbol:     symbol,
			Type:       t,
			Severity:   sev,
			Side:       side,
			Value:      value,
			Message:    msg,
			DetectedAt: now,
		})
	}

	// Crash takes precedence over a plain gap down.
	switch {
	case changePct <= crashThreshold:
		add(models.AlertPriceCrash, models.SeverityEmergency, models.SideSell, changePct,
			fmt.Sprintf("%s down %.1f%% from previous close", symbol, changePct))
	case changePct <= gapDownThreshold:
		add(models.AlertGapDown, models.SeverityUrgent, models.SideWatch, changePct,
			fmt.Sprintf("%s gapped down %.1f%%", symbol, changePct))
	case changePct >= gapUpThreshold:
		add(models.AlertGapUp, models.SeverityUrgent, models.SideBuy, changePct,
			fmt.Sprintf("%s gapped up %.1f%%", symbol, changePct))
	}

	rsi := indicators.RSI(closes, indicators.RSIPeriod)
	if rsi <= rsiOversoldLevel {
		add(models.AlertRSIOversold, models.SeverityUrgent, models.SideBuy, rsi,
			fmt.Sprintf("%s RSI %.1f, deeply oversold", symbol, rsi))
	} else if rsi >= rsiOverboughtLevel {
		add(models.AlertRSIOverbought, models.SeverityUrgent, models.SideSell, rsi,
			fmt.Sprintf("%s RSI %.1f, deeply overbought", symbol, rsi))
	}

	volRatio := indicators.VolumeRatio(daily.Volumes(), indicators.VolumeWindow)
	if volRatio >= volumeSpikeRatio {
		switch {
		case changePct >= spikeDirectionMove:
			add(models.AlertVolumeSpikeUp, models.SeverityNormal, models.SideBuy, volRatio,
				fmt.Sprintf("%s volume %.1fx average on a %.1f%% rise", symbol, volRatio, changePct))
		case changePct <= -spikeDirectionMove:
			add(models.AlertVolumeSpikeDown, models.SeverityUrgent, models.SideSell, volRatio,
				fmt.Sprintf("%s volume %.1fx average on a %.1f%% drop", symbol, volRatio, changePct))
		default:
			add(models.AlertVolumeSpike, models.SeverityNormal, models.SideWatch, volRatio,
				fmt.Sprintf("%s volume %.1fx average", symbol, volRatio))
		}
	} else if volRatio <= volumeDryRatio && volRatio > 0 {
		add(models.AlertVolumeDry, models.SeverityNormal, models.SideWatch, volRatio,
			fmt.Sprintf("%s volume dried up to %.1fx average", symbol, volRatio))
	}

	if daily.Len() >= 50 {
		sma50 := indicators.SMA(closes, 50)
		if sma50 > 0 && last < sma50*supportBreakPct {
			add(models.AlertSupportBreak, models.SeverityUrgent, models.SideSell, last,
				fmt.Sprintf("%s broke below SMA50 support (%.2f < %.2f)", symbol, last, sma50))
		}
	}
	if daily.Len() >= 20 {
		sma20 := indicators.SMA(closes, 20)
		if sma20 > 0 && last > sma20*resistanceBreakPct {
			add(models.AlertResistanceBreak, models.SeverityNormal, models.SideBuy, last,
				fmt.Sprintf("%s broke above SMA20 resistance (%.2f > %.2f)", symbol, last, sma20))
		}
	}

	if hourly != nil && hourly.Len() > hourlyEMASlow {
		if cross, ok := hourlyCross(hourly.Closes()); ok {
			if cross == models.CrossGolden {
				add(models.AlertGoldenCross, models.SeverityNormal, models.SideBuy, last,
					fmt.Sprintf("%s hourly EMA%d crossed above EMA%d", symbol, hourlyEMAFast, hourlyEMASlow))
			} else {
				add(models.AlertDeathCross, models.SeverityUrgent, models.SideSell, last,
					fmt.Sprintf("%s hourly EMA%d crossed below EMA%d", symbol, hourlyEMAFast, hourlyEMASlow))
			}
		}
	}

	return alerts
}

// hourlyCross reports a fresh EMA12/26 crossover on the last hourly bar.
func hourlyCross(closes []float64) (models.CrossState, bool) {
	fast := indicators.EMASeries(closes, hourlyEMAFast)
	slow := indicators.EMASeries(closes, hourlyEMASlow)
	n := len(closes)
	if n < 2 {
		return "", false
	}
	prevAbove := fast[n-2] > slow[n-2]
	nowAbove := fast[n-1] > slow[n-1]
	switch {
	case nowAbove && !prevAbove:
		return models.CrossGolden, true
	case !nowAbove && prevAbove:
		return models.CrossDeath, true
	default:
		return "", false
	}
}

// checkMarket evaluates the broad market index symbols.
func (m *Monitor) checkMarket(ctx context.Context) {
	for _, symbol := range m.cfg.MarketSymbols {
		daily, err := m.feed.GetBars(ctx, symbol, "5d", models.IntervalDaily)
		if err != nil || daily.Len() < 2 {
			logger.Warn("Market check failed for %s: %v", symbol, err)
			continue
		}
		closes := daily.Closes()
		last, prev := closes[len(closes)-1], closes[len(closes)-2]
		if prev == 0 {
			continue
		}
		changePct := (last - prev) / prev * 100

		if alert, ok := MarketAlert(symbol, changePct); ok {
			m.dispatch(alert)
		}
	}
}

// MarketAlert classifies a daily index move against the market thresholds.
func MarketAlert(symbol string, changePct float64) (models.Alert, bool) {
	a := models.Alert{
		Symbol:     symbol,
		Value:      changePct,
		DetectedAt: time.Now(),
	}
	switch {
	case changePct <= marketCrashPct:
		a.Type = models.AlertMarketCrash
		a.Severity = models.SeverityEmergency
		a.Side = models.SideSell
		a.Message = fmt.Sprintf("%s down %.1f%%, broad market crash", symbol, changePct)
	case changePct <= marketDeclinePct:
		a.Type = models.AlertMarketDecline
		a.Severity = models.SeverityNormal
		a.Side = models.SideWatch
		a.Message = fmt.Sprintf("%s down %.1f%%, market weakness", symbol, changePct)
	case changePct >= marketRallyPct:
		a.Type = models.AlertMarketRally
		a.Severity = models.SeverityNormal
		a.Side = models.SideBuy
		a.Message = fmt.Sprintf("%s up %.1f%%, market rally", symbol, changePct)
	default:
		return models.Alert{}, false
	}
	return a, true
}

// checkVolatility evaluates the volatility index level from the latest
// intraday print rather than the previous daily close.
func (m *Monitor) checkVolatility(ctx context.Context) {
	symbol := m.cfg.VolatilitySymbol
	level, err := m.feed.GetLastPrice(ctx, symbol)
	if err != nil {
		logger.Warn("Volatility check failed for %s: %v", symbol, err)
		return
	}

	if alert, ok := VolatilityAlert(symbol, level); ok {
		m.dispatch(alert)
	}
}

// VolatilityAlert classifies a volatility index level against the fear bands.
func VolatilityAlert(symbol string, level float64) (models.Alert, bool) {
	a := models.Alert{
		Symbol:     symbol,
		Value:      level,
		DetectedAt: time.Now(),
	}
	switch {
	case level >= vixExtremeLevel:
		a.Type = models.AlertVolExtreme
		a.Severity = models.SeverityEmergency
		a.Side = models.SideSell
		a.Message = fmt.Sprintf("Volatility index at %.1f, extreme fear", level)
	case level >= vixElevatedLevel:
		a.Type = models.AlertVolElevated
		a.Severity = models.SeverityUrgent
		a.Side = models.SideWatch
		a.Message = fmt.Sprintf("Volatility index at %.1f, elevated fear", level)
	case level <= vixCalmLevel && level > 0:
		a.Type = models.AlertVolCalm
		a.Severity = models.SeverityNormal
		a.Side = models.SideWatch
		a.Message = fmt.Sprintf("Volatility index at %.1f, unusually calm", level)
	default:
		return models.Alert{}, false
	}
	return a, true
}

// dispatch sends one alert through the dispatcher unless its symbol and rule
// fired within the dedup window. The window is refreshed on every attempt,
// whether or not delivery succeeds.
func (m *Monitor) dispatch(alert models.Alert) {
	if !m.shouldDispatch(&alert) {
		logger.Debug("Suppressed duplicate alert %s", alert.Key())
		return
	}

	delivered := m.dispatcher.SendAlert(alert)
	if !delivered {
		logger.Warn("Alert delivery failed for %s", alert.Key())
	}
	if m.recorder != nil {
		if err := m.recorder.RecordAlert(alert, delivered); err != nil {
			logger.Warn("Failed to record alert %s: %v", alert.Key(), err)
		}
	}
}

func (m *Monitor) shouldDispatch(alert *models.Alert) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := alert.Key()
	if sentAt, ok := m.lastSent[key]; ok && time.Since(sentAt) < m.cfg.DedupWindow {
		return false
	}
	m.lastSent[key] = time.Now()
	return true
}

// SuppressedUntil reports when the dedup window for a key expires, for
// diagnostics. The zero time means the key has never fired.
func (m *Monitor) SuppressedUntil(key string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	sentAt, ok := m.lastSent[key]
	if !ok {
		return time.Time{}
	}
	return sentAt.Add(m.cfg.DedupWindow)
}
