package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alphaseeker/alphaseeker/internal/advisor"
	"github.com/alphaseeker/alphaseeker/internal/analyzer"
	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/logger"
	"github.com/alphaseeker/alphaseeker/internal/marketdata"
	"github.com/alphaseeker/alphaseeker/internal/monitor"
	"github.com/alphaseeker/alphaseeker/internal/retry"
	"github.com/alphaseeker/alphaseeker/internal/storage"
	"github.com/alphaseeker/alphaseeker/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	runCycle   = flag.String("run", "", "Run one cycle immediately (morning|evening|weekly) and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxCycles)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	feed := marketdata.NewClient(
		cfg.MarketData.BaseURL,
		cfg.MarketData.Timeout,
		retry.Policy{
			MaxAttempts: cfg.MarketData.MaxRetries,
			DelayBase:   cfg.MarketData.RetryDelayBase,
		},
	)

	notifier, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client: %v", err)
	}

	mon := monitor.New(feed, notifier, store, cfg.Monitor)

	adv := advisor.NewClient(cfg.Advisor)
	anlz := analyzer.New(feed, adv, store, notifier, mon,
		cfg.MarketData.MinDailyBars, cfg.Analysis)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *runCycle != "" {
		runSingleCycle(ctx, anlz, *runCycle)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	notifier.ListenForCommands(ctx)

	// Resume watching the persisted watchlist across restarts.
	if watched, err := store.LoadWatchlist(); err != nil {
		logger.Warn("Failed to load watchlist: %v", err)
	} else if len(watched) > 0 {
		if mon.Start(ctx, watched) {
			logger.Info("Resumed monitoring %d symbols", len(watched))
		}
	} else {
		logger.Info("Watchlist empty, monitor idle until the first morning cycle")
	}

	scheduler := cron.New(cron.WithSeconds())
	schedule := func(name, expr string, run func(context.Context) error) {
		if _, err := scheduler.AddFunc(expr, func() {
			logger.Info("Starting scheduled %s cycle", name)
			start := time.Now()
			if err := run(ctx); err != nil {
				logger.Error("%s cycle failed: %v", name, err)
				if sendErr := notifier.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification: %v", sendErr)
				}
				return
			}
			logger.Info("%s cycle completed in %v", name, time.Since(start))
		}); err != nil {
			logger.Fatal("Invalid %s schedule %q: %v", name, expr, err)
		}
	}

	schedule("morning", cfg.Schedule.Morning, func(ctx context.Context) error {
		cycle, err := anlz.RunMorning(ctx)
		if err != nil {
			return err
		}
		ensureMonitoring(ctx, mon, cycle.Maintained)
		return nil
	})
	schedule("evening", cfg.Schedule.Evening, func(ctx context.Context) error {
		cycle, err := anlz.RunEvening(ctx)
		if err != nil {
			return err
		}
		ensureMonitoring(ctx, mon, cycle.Maintained)
		return nil
	})
	schedule("weekly", cfg.Schedule.Weekly, anlz.RunWeekly)

	scheduler.Start()
	logger.Info("Scheduler started (morning %q, evening %q, weekly %q)",
		cfg.Schedule.Morning, cfg.Schedule.Evening, cfg.Schedule.Weekly)

	<-sigChan
	logger.Info("Shutdown signal received, cleaning up...")
	scheduler.Stop()
	mon.Stop()
	cancel()
	logger.Info("Service stopped")
}

// ensureMonitoring starts the monitor after the first cycle of a fresh
// process; afterwards the cycle itself has already replaced the watched set.
func ensureMonitoring(ctx context.Context, mon *monitor.Monitor, watched []string) {
	if mon.Status() == monitor.StatusMonitoring || len(watched) == 0 {
		return
	}
	mon.Start(ctx, watched)
}

func runSingleCycle(ctx context.Context, anlz *analyzer.Analyzer, kind string) {
	var err error
	switch kind {
	case "morning":
		_, err = anlz.RunMorning(ctx)
	case "evening":
		_, err = anlz.RunEvening(ctx)
	case "weekly":
		err = anlz.RunWeekly(ctx)
	default:
		logger.Fatal("Unknown cycle kind %q (want morning, evening, or weekly)", kind)
	}
	if err != nil {
		logger.Fatal("%s cycle failed: %v", kind, err)
	}
	logger.Info("%s cycle completed", kind)
}
