package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Advisor    AdvisorConfig    `mapstructure:"advisor"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MarketDataConfig holds the OHLCV feed configuration
type MarketDataConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	MinDailyBars   int           `mapstructure:"min_daily_bars"`
}

// AdvisorConfig holds the AI candidate-discovery configuration
type AdvisorConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Enabled        bool          `mapstructure:"enabled"`
}

// AnalysisConfig holds the analysis-cycle and position-sizing configuration
type AnalysisConfig struct {
	MaxTickers        int     `mapstructure:"max_tickers"`
	TotalCapital      float64 `mapstructure:"total_capital"`
	MaxPositionPct    float64 `mapstructure:"max_position_pct"`
	RiskPerTrade      float64 `mapstructure:"risk_per_trade"`
	MinPosition       float64 `mapstructure:"min_position"`
	MinScore          float64 `mapstructure:"min_score"`
	LargeGapThreshold float64 `mapstructure:"large_gap_threshold"`
}

// MonitorConfig holds the risk-monitor configuration
type MonitorConfig struct {
	PortfolioInterval  time.Duration `mapstructure:"portfolio_interval"`
	MarketInterval     time.Duration `mapstructure:"market_interval"`
	VolatilityInterval time.Duration `mapstructure:"volatility_interval"`
	DedupWindow        time.Duration `mapstructure:"dedup_window"`
	MarketSymbols      []string      `mapstructure:"market_symbols"`
	VolatilitySymbol   string        `mapstructure:"volatility_symbol"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	FallbackPath   string        `mapstructure:"fallback_path"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxCycles int    `mapstructure:"max_cycles"`
}

// ScheduleConfig holds the cron expressions for the scheduled analyses
type ScheduleConfig struct {
	Morning string `mapstructure:"morning"`
	Evening string `mapstructure:"evening"`
	Weekly  string `mapstructure:"weekly"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("ALPHA_SEEKER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Market data defaults
	v.SetDefault("marketdata.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("marketdata.timeout", "30s")
	v.SetDefault("marketdata.max_retries", 3)
	v.SetDefault("marketdata.retry_delay_base", "1s")
	v.SetDefault("marketdata.min_daily_bars", 50)

	// Advisor defaults
	v.SetDefault("advisor.api_url", "https://api.perplexity.ai/chat/completions")
	v.SetDefault("advisor.model", "llama-3.1-sonar-large-128k-online")
	v.SetDefault("advisor.temperature", 0.2)
	v.SetDefault("advisor.max_tokens", 2000)
	v.SetDefault("advisor.timeout", "30s")
	v.SetDefault("advisor.max_retries", 3)
	v.SetDefault("advisor.retry_delay_base", "1s")
	v.SetDefault("advisor.enabled", true)

	// Analysis defaults
	v.SetDefault("analysis.max_tickers", 8)
	v.SetDefault("analysis.total_capital", 100000.0)
	v.SetDefault("analysis.max_position_pct", 0.20)
	v.SetDefault("analysis.risk_per_trade", 0.02)
	v.SetDefault("analysis.min_position", 1000.0)
	v.SetDefault("analysis.min_score", 4.0)
	v.SetDefault("analysis.large_gap_threshold", 7.0)

	// Monitor defaults
	v.SetDefault("monitor.portfolio_interval", "3m")
	v.SetDefault("monitor.market_interval", "10m")
	v.SetDefault("monitor.volatility_interval", "15m")
	v.SetDefault("monitor.dedup_window", "30m")
	v.SetDefault("monitor.market_symbols", []string{"SPY", "QQQ", "IWM"})
	v.SetDefault("monitor.volatility_symbol", "^VIX")

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.fallback_path", "./data/undelivered-alerts.log")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/alphaseeker.db")
	v.SetDefault("storage.max_cycles", 200)

	// Schedule defaults (6-field cron expressions, server-local time)
	v.SetDefault("schedule.morning", "0 7 6 * * 1-5")
	v.SetDefault("schedule.evening", "0 13 22 * * 1-5")
	v.SetDefault("schedule.weekly", "0 0 18 * * 0")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("marketdata.base_url is required")
	}
	if c.MarketData.Timeout < time.Second {
		return fmt.Errorf("marketdata.timeout must be at least 1 second")
	}
	if c.MarketData.MinDailyBars < 2 {
		return fmt.Errorf("marketdata.min_daily_bars must be at least 2")
	}

	if c.Advisor.Enabled {
		if c.Advisor.APIURL == "" {
			return fmt.Errorf("advisor.api_url is required when advisor is enabled")
		}
		if c.Advisor.APIKey == "" {
			return fmt.Errorf("advisor.api_key is required when advisor is enabled")
		}
		if c.Advisor.Model == "" {
			return fmt.Errorf("advisor.model is required when advisor is enabled")
		}
	}

	if c.Analysis.MaxTickers < 1 {
		return fmt.Errorf("analysis.max_tickers must be at least 1")
	}
	if c.Analysis.TotalCapital <= 0 {
		return fmt.Errorf("analysis.total_capital must be positive")
	}
	if c.Analysis.MaxPositionPct <= 0 || c.Analysis.MaxPositionPct > 1 {
		return fmt.Errorf("analysis.max_position_pct must be between 0 and 1")
	}
	if c.Analysis.RiskPerTrade <= 0 || c.Analysis.RiskPerTrade > 0.1 {
		return fmt.Errorf("analysis.risk_per_trade must be between 0 and 0.1")
	}
	if c.Analysis.MinPosition < 0 {
		return fmt.Errorf("analysis.min_position must not be negative")
	}

	if c.Monitor.PortfolioInterval < time.Minute {
		return fmt.Errorf("monitor.portfolio_interval must be at least 1 minute")
	}
	if c.Monitor.MarketInterval < time.Minute {
		return fmt.Errorf("monitor.market_interval must be at least 1 minute")
	}
	if c.Monitor.VolatilityInterval < time.Minute {
		return fmt.Errorf("monitor.volatility_interval must be at least 1 minute")
	}
	if c.Monitor.DedupWindow < time.Minute {
		return fmt.Errorf("monitor.dedup_window must be at least 1 minute")
	}
	if len(c.Monitor.MarketSymbols) == 0 {
		return fmt.Errorf("monitor.market_symbols must contain at least one symbol")
	}
	if c.Monitor.VolatilitySymbol == "" {
		return fmt.Errorf("monitor.volatility_symbol is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxCycles < 1 {
		return fmt.Errorf("storage.max_cycles must be at least 1")
	}

	if c.Schedule.Morning == "" || c.Schedule.Evening == "" || c.Schedule.Weekly == "" {
		return fmt.Errorf("schedule.morning, schedule.evening and schedule.weekly are required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
