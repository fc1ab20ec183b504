package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Trading   TradingConfig   `yaml:"trading"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	API       APIConfig       `yaml:"api"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// TradingConfig drives the live session.
type TradingConfig struct {
	Market              string  `yaml:"market" validate:"required"`
	ContractFamily      string  `yaml:"contract_family" validate:"oneof=matches differs over_under even_odd"`
	StakeAmount         float64 `yaml:"stake_amount" validate:"gt=0"`
	TargetProfit        float64 `yaml:"target_profit" validate:"gt=0"`
	StopLoss            float64 `yaml:"stop_loss" validate:"gt=0"`
	MartingaleStart     int     `yaml:"martingale_start" validate:"gte=1"`
	MaxMartingale       int     `yaml:"max_martingale" validate:"gte=0,lte=20"`
	MaxRiskFraction     float64 `yaml:"max_risk_fraction" validate:"gt=0,lte=1"`
	WindowSize          int     `yaml:"window_size" validate:"gte=1"`
	HistoryCount        int     `yaml:"history_count" validate:"gtefield=WindowSize"`
	Predictor           string  `yaml:"predictor" validate:"omitempty,oneof=mode pattern"`
	PollIntervalMS      int     `yaml:"poll_interval_ms" validate:"gt=0"`
	CacheTTLSeconds     int     `yaml:"cache_ttl_seconds" validate:"gte=0"`
	StepIntervalSeconds int     `yaml:"step_interval_seconds" validate:"gt=0"`
	MaxConnectAttempts  int     `yaml:"max_connect_attempts" validate:"gte=1"`
}

// BacktestConfig drives the simulator and the parameter sweep.
type BacktestConfig struct {
	ContractFamily    string    `yaml:"contract_family" validate:"oneof=matches differs over_under even_odd"`
	StakeAmount       float64   `yaml:"stake_amount" validate:"gt=0"`
	MartingaleEnabled bool      `yaml:"martingale_enabled"`
	MartingaleStart   int       `yaml:"martingale_start" validate:"gte=1"`
	MaxMartingale     int       `yaml:"max_martingale" validate:"gte=0,lte=20"`
	MaxRiskFraction   float64   `yaml:"max_risk_fraction" validate:"gt=0,lte=1"`
	MinConfidence     float64   `yaml:"min_confidence" validate:"gte=0,lte=1"`
	WindowSize        int       `yaml:"window_size" validate:"gte=1"`
	InitialBalance    float64   `yaml:"initial_balance" validate:"gt=0"`
	Predictor         string    `yaml:"predictor" validate:"omitempty,oneof=mode pattern"`
	Workers           int       `yaml:"workers" validate:"gte=1"`
	SweepFamilies     []string  `yaml:"sweep_families" validate:"dive,oneof=matches differs over_under even_odd"`
	SweepConfidences  []float64 `yaml:"sweep_confidences" validate:"dive,gte=0,lte=1"`
	PipDecimals       int       `yaml:"pip_decimals"`
}

// APIConfig configures the venue connection.
type APIConfig struct {
	WSURL      string  `yaml:"ws_url" validate:"required,url"`
	AppID      string  `yaml:"app_id"`
	Token      string  `yaml:"token"`
	RatePerSec float64 `yaml:"rate_per_sec" validate:"gt=0"`
}

// SentimentConfig configures the optional exogenous signal; empty URL disables it.
type SentimentConfig struct {
	URL            string `yaml:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
}

// StorageConfig controls where data is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls format, level and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the YAML file and the .env file if present. Keys absent from the
// file keep their defaults; keys present, zero included, are taken as written.
// Environment variables override the YAML values they map to.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w: %w", domain.ErrConfiguration, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file.
// It passes Validate.
func Default() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Validate checks every section's constraints.
func (c *Config) Validate() error {
	return domain.Validate(c)
}

// Session maps the trading section onto the live session configuration.
func (c *Config) Session() domain.SessionConfig {
	t := c.Trading
	return domain.SessionConfig{
		Market:          t.Market,
		Family:          domain.ContractFamily(t.ContractFamily),
		StakeAmount:     t.StakeAmount,
		TargetProfit:    t.TargetProfit,
		StopLoss:        t.StopLoss,
		MartingaleStart: t.MartingaleStart,
		MaxMartingale:   t.MaxMartingale,
		MaxRiskFraction: t.MaxRiskFraction,
		WindowSize:      t.WindowSize,
		HistoryCount:    t.HistoryCount,
		Predictor:       t.Predictor,
	}
}

// BacktestRun maps the backtest section onto a simulator configuration.
func (c *Config) BacktestRun() domain.BacktestConfig {
	b := c.Backtest
	return domain.BacktestConfig{
		Family:            domain.ContractFamily(b.ContractFamily),
		StakeAmount:       b.StakeAmount,
		MartingaleEnabled: b.MartingaleEnabled,
		MartingaleStart:   b.MartingaleStart,
		MaxMartingale:     b.MaxMartingale,
		MaxRiskFraction:   b.MaxRiskFraction,
		MinConfidence:     b.MinConfidence,
		WindowSize:        b.WindowSize,
		InitialBalance:    b.InitialBalance,
		Predictor:         b.Predictor,
	}
}

// PollInterval returns the settlement polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trading.PollIntervalMS) * time.Millisecond
}

// CacheTTL returns how long fetched ticks stay fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Trading.CacheTTLSeconds) * time.Second
}

// StepInterval returns the pause between control loop passes.
func (c *Config) StepInterval() time.Duration {
	return time.Duration(c.Trading.StepIntervalSeconds) * time.Second
}

// SentimentTimeout returns the HTTP timeout of the sentiment source.
func (c *Config) SentimentTimeout() time.Duration {
	return time.Duration(c.Sentiment.TimeoutSeconds) * time.Second
}

// applyEnvOverrides replaces values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DERIV_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		cfg.API.AppID = v
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		cfg.Sentiment.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

func defaultConfig() Config {
	sd := domain.DefaultSessionConfig()
	bd := domain.DefaultBacktestConfig()
	return Config{
		Trading: TradingConfig{
			Market:              sd.Market,
			ContractFamily:      string(sd.Family),
			StakeAmount:         sd.StakeAmount,
			TargetProfit:        sd.TargetProfit,
			StopLoss:            sd.StopLoss,
			MartingaleStart:     sd.MartingaleStart,
			MaxMartingale:       sd.MaxMartingale,
			MaxRiskFraction:     sd.MaxRiskFraction,
			WindowSize:          sd.WindowSize,
			HistoryCount:        sd.HistoryCount,
			PollIntervalMS:      1000,
			CacheTTLSeconds:     10,
			StepIntervalSeconds: 5,
			MaxConnectAttempts:  3,
		},
		Backtest: BacktestConfig{
			ContractFamily:  string(bd.Family),
			StakeAmount:     bd.StakeAmount,
			MartingaleStart: bd.MartingaleStart,
			MaxMartingale:   bd.MaxMartingale,
			MaxRiskFraction: bd.MaxRiskFraction,
			MinConfidence:   bd.MinConfidence,
			WindowSize:      bd.WindowSize,
			InitialBalance:  bd.InitialBalance,
			Workers:         4,
			PipDecimals:     -1,
		},
		API: APIConfig{
			WSURL:      "wss://ws.binaryws.com/websockets/v3",
			AppID:      "1089",
			RatePerSec: 5,
		},
		Sentiment: SentimentConfig{TimeoutSeconds: 3},
		Storage:   StorageConfig{DSN: "digitbot.db"},
		Metrics:   MetricsConfig{Addr: ":9100"},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}
