package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols    []string         `yaml:"symbols"`
	QuoteAsset string           `yaml:"quote_asset"`
	DataSource DataSourceConfig `yaml:"data_source"`
	History    HistoryConfig    `yaml:"history"`
	Engine     EngineConfig     `yaml:"engine"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Storage    StorageConfig    `yaml:"storage"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Logging    LoggingConfig    `yaml:"logging"`
	Proxy      string           `yaml:"proxy"`
}

type DataSourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type HistoryConfig struct {
	SeedSamples     int           `yaml:"seed_samples"`
	SeedInterval    time.Duration `yaml:"seed_interval"`
	RetentionFactor int           `yaml:"retention_factor"`
}

type EngineConfig struct {
	ATRPeriod     int     `yaml:"atr_period"`
	MinTradeUSD   float64 `yaml:"min_trade_usd"`
	CapitalBase   float64 `yaml:"capital_base"`
	TakerFee      float64 `yaml:"taker_fee"`
	// MakerFee is not applied: there is no maker order path.
	MakerFee      float64 `yaml:"maker_fee"`
	ReferenceMode string  `yaml:"reference_mode"`
}

type PortfolioConfig struct {
	StateFile  string  `yaml:"state_file"`
	InitialUSD float64 `yaml:"initial_usd"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	Dir        string `yaml:"dir"`
}

type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
	Cron     string        `yaml:"cron"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Enabled reports whether Telegram delivery is configured.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" && t.ChatID != "" }

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the configuration used when no file or env overrides it.
func Default() *Config {
	return &Config{
		Symbols:    []string{"XTZUSDT", "PEPEUSDT", "BOMEUSDT", "BXXUSDT", "BONKUSDT"},
		QuoteAsset: "USDT",
		DataSource: DataSourceConfig{
			BaseURL: "https://api.mexc.com",
			Timeout: 10 * time.Second,
		},
		History: HistoryConfig{
			SeedSamples:     15,
			SeedInterval:    time.Second,
			RetentionFactor: 4,
		},
		Engine: EngineConfig{
			ATRPeriod:     14,
			MinTradeUSD:   5.0,
			CapitalBase:   500000.0,
			TakerFee:      0.001,
			MakerFee:      0.0,
			ReferenceMode: "last_price",
		},
		Portfolio: PortfolioConfig{
			StateFile:  "data/balances.json",
			InitialUSD: 2000.00,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "data/spot_sentinel.db",
			Dir:        "data",
		},
		Schedule: ScheduleConfig{Interval: 30 * time.Second},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			MaxSizeMB:  100,
			MaxAgeDays: 14,
			MaxBackups: 5,
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("MEXC_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		c.Portfolio.StateFile = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("SCHEDULE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCHEDULE_INTERVAL: %w", err)
		}
		c.Schedule.Interval = d
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) normalize() {
	for i, s := range c.Symbols {
		c.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	c.QuoteAsset = strings.ToUpper(strings.TrimSpace(c.QuoteAsset))
}

// WindowSize is the number of samples kept in memory per symbol.
func (c *Config) WindowSize() int {
	return (c.Engine.ATRPeriod + 1) * c.History.RetentionFactor
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.QuoteAsset == "" {
		return fmt.Errorf("quote_asset is required")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("symbols contains an empty entry")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %s", s)
		}
		seen[s] = true
		if !strings.HasSuffix(s, c.QuoteAsset) || s == c.QuoteAsset {
			return fmt.Errorf("symbol %s is not quoted in %s", s, c.QuoteAsset)
		}
	}
	if c.History.SeedSamples < 1 {
		return fmt.Errorf("history.seed_samples must be >= 1")
	}
	if c.History.RetentionFactor < 1 {
		return fmt.Errorf("history.retention_factor must be >= 1")
	}
	if c.Engine.ATRPeriod < 1 {
		return fmt.Errorf("engine.atr_period must be >= 1")
	}
	if c.Engine.MinTradeUSD <= 0 {
		return fmt.Errorf("engine.min_trade_usd must be positive")
	}
	if c.Engine.CapitalBase <= 0 {
		return fmt.Errorf("engine.capital_base must be positive")
	}
	if c.Engine.TakerFee < 0 || c.Engine.TakerFee >= 1 || c.Engine.MakerFee < 0 || c.Engine.MakerFee >= 1 {
		return fmt.Errorf("engine fees must be in [0,1)")
	}
	switch c.Engine.ReferenceMode {
	case "last_price", "holding":
	default:
		return fmt.Errorf("engine.reference_mode must be last_price or holding, got %q", c.Engine.ReferenceMode)
	}
	if c.Portfolio.StateFile == "" {
		return fmt.Errorf("portfolio.state_file is required")
	}
	if c.Portfolio.InitialUSD < 0 {
		return fmt.Errorf("portfolio.initial_usd must not be negative")
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for sqlite")
		}
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for file storage")
		}
	default:
		return fmt.Errorf("storage.driver must be sqlite or file, got %q", c.Storage.Driver)
	}
	if c.Schedule.Cron == "" && c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive")
	}
	return nil
}
