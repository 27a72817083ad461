package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"Kolgejt/internal/model"
	"Kolgejt/internal/strategy"
)

// CronParser accepts five-field specs, six-field specs with seconds, and descriptors like @daily.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ScanJob is a named scan run on a cron schedule.
type ScanJob struct {
	Name     string               `yaml:"name"`
	Cron     string               `yaml:"cron"`
	Market   string               `yaml:"market"` // empty means universe.market
	ChatID   string               `yaml:"chat_id"`
	Strategy model.StrategyParams `yaml:"strategy"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string        `yaml:"provider"` // yahoo, alpaca or mock
		AlpacaKey    string        `yaml:"alpaca_key"`
		AlpacaSecret string        `yaml:"alpaca_secret"`
		AlpacaFeed   string        `yaml:"alpaca_feed"`
		Timeout      time.Duration `yaml:"timeout"`
		LookbackDays int           `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Scan struct {
		Workers            int           `yaml:"workers"`
		TickerTimeout      time.Duration `yaml:"ticker_timeout"`
		MinBars            int           `yaml:"min_bars"`
		TailLength         int           `yaml:"tail_length"`
		BollingerTolerance float64       `yaml:"bollinger_tolerance"`
		VolumeMultiplier   float64       `yaml:"volume_multiplier"`
	} `yaml:"scan"`
	Scans    []ScanJob `yaml:"scans"`
	Universe struct {
		Market       string        `yaml:"market"` // sp500 or custom
		Tickers      []string      `yaml:"tickers"`
		WikipediaURL string        `yaml:"wikipedia_url"`
		CSVURL       string        `yaml:"csv_url"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"universe"`
	Cache struct {
		SQLitePath     string        `yaml:"sqlite_path"`
		BarMaxAge      time.Duration `yaml:"bar_max_age"`
		RedisHost      string        `yaml:"redis_host"`
		RedisPort      string        `yaml:"redis_port"`
		RedisPassword  string        `yaml:"redis_password"`
		UniverseTTL    time.Duration `yaml:"universe_ttl"`
		FundamentalTTL time.Duration `yaml:"fundamentals_ttl"`
	} `yaml:"cache"`
	Watchlist struct {
		StateFile string `yaml:"state_file"`
		MaxSize   int    `yaml:"max_size"`
	} `yaml:"watchlist"`
	Overview struct {
		Cron       string `yaml:"cron"`
		SampleSize int    `yaml:"sample_size"`
		Period     int    `yaml:"period"`
		TopN       int    `yaml:"top_n"`
	} `yaml:"overview"`
	Fundamentals struct {
		Cron string `yaml:"cron"`
		TopN int    `yaml:"top_n"`
		// Limit caps the tickers queried per run; 0 queries the whole universe.
		Limit int `yaml:"limit"`
	} `yaml:"fundamentals"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads .env, then the YAML file, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
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
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":    &c.Telegram.ChatID,
		"DATA_PROVIDER":       &c.DataSource.Provider,
		"APCA_API_KEY_ID":     &c.DataSource.AlpacaKey,
		"APCA_API_SECRET_KEY": &c.DataSource.AlpacaSecret,
		"HTTPS_PROXY":         &c.Proxy,
		"UNIVERSE_MARKET":     &c.Universe.Market,
		"SQLITE_PATH":         &c.Cache.SQLitePath,
		"REDIS_HOST":          &c.Cache.RedisHost,
		"REDIS_PORT":          &c.Cache.RedisPort,
		"REDIS_PASSWORD":      &c.Cache.RedisPassword,
		"WATCHLIST_FILE":      &c.Watchlist.StateFile,
		"LOG_LEVEL":           &c.LogLevel,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAN_WORKERS: %w", err)
		}
		c.Scan.Workers = n
	}
	if v := os.Getenv("SCAN_TICKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCAN_TICKER_TIMEOUT: %w", err)
		}
		c.Scan.TickerTimeout = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.AlpacaFeed == "" {
		c.DataSource.AlpacaFeed = "iex"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 10 * time.Second
	}
	if c.DataSource.LookbackDays == 0 {
		c.DataSource.LookbackDays = 260
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 8
	}
	if c.Scan.TickerTimeout == 0 {
		c.Scan.TickerTimeout = 15 * time.Second
	}
	if c.Scan.MinBars == 0 {
		c.Scan.MinBars = strategy.DefaultMinBars
	}
	if c.Scan.TailLength == 0 {
		c.Scan.TailLength = strategy.DefaultTailLength
	}
	if c.Scan.BollingerTolerance == 0 {
		c.Scan.BollingerTolerance = model.DefaultBollingerTolerance
	}
	if c.Scan.VolumeMultiplier == 0 {
		c.Scan.VolumeMultiplier = strategy.DefaultVolumeMultiplier
	}
	if c.Universe.Market == "" {
		c.Universe.Market = "sp500"
	}
	if c.Universe.Timeout == 0 {
		c.Universe.Timeout = 20 * time.Second
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/kolgejt.db"
	}
	if c.Cache.BarMaxAge == 0 {
		c.Cache.BarMaxAge = 6 * time.Hour
	}
	if c.Cache.RedisPort == "" {
		c.Cache.RedisPort = "6379"
	}
	if c.Cache.UniverseTTL == 0 {
		c.Cache.UniverseTTL = 24 * time.Hour
	}
	if c.Cache.FundamentalTTL == 0 {
		c.Cache.FundamentalTTL = 12 * time.Hour
	}
	if c.Watchlist.StateFile == "" {
		c.Watchlist.StateFile = "data/watchlist.json"
	}
	if c.Overview.SampleSize == 0 {
		c.Overview.SampleSize = 50
	}
	if c.Overview.Period == 0 {
		c.Overview.Period = 5
	}
	if c.Overview.TopN == 0 {
		c.Overview.TopN = 5
	}
	if c.Fundamentals.TopN == 0 {
		c.Fundamentals.TopN = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	for i := range c.Scans {
		job := &c.Scans[i]
		if job.Market == "" {
			job.Market = c.Universe.Market
		}
		if job.ChatID == "" {
			job.ChatID = c.Telegram.ChatID
		}
		if job.Strategy.Kind == model.StrategyBollinger {
			if job.Strategy.Period == 0 {
				job.Strategy.Period = model.DefaultBollingerPeriod
			}
			if job.Strategy.StdDevMultiplier == 0 {
				job.Strategy.StdDevMultiplier = model.DefaultBollingerStdDev
			}
			if job.Strategy.Tolerance == 0 {
				job.Strategy.Tolerance = c.Scan.BollingerTolerance
			}
		}
	}
}

// Validate checks that all required fields are set and every scheduled scan is well formed.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if err := c.ValidateScan(); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, job := range c.Scans {
		if job.Name == "" {
			return fmt.Errorf("scans: every job needs a name")
		}
		if seen[job.Name] {
			return fmt.Errorf("scans: duplicate job %q", job.Name)
		}
		seen[job.Name] = true
		if _, err := CronParser.Parse(job.Cron); err != nil {
			return fmt.Errorf("scans.%s.cron: %w", job.Name, err)
		}
		if err := strategy.Validate(job.Strategy); err != nil {
			return fmt.Errorf("scans.%s.strategy: %w", job.Name, err)
		}
		if need := c.Evaluator().MinimumHistory(job.Strategy); need > c.DataSource.LookbackDays {
			return fmt.Errorf("scans.%s.strategy: %w: needs %d bars, data_source.lookback_days is %d",
				job.Name, strategy.ErrInvalidParameter, need, c.DataSource.LookbackDays)
		}
	}
	for name, spec := range map[string]string{"overview.cron": c.Overview.Cron, "fundamentals.cron": c.Fundamentals.Cron} {
		if spec == "" {
			continue
		}
		if _, err := CronParser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ValidateScan checks the settings a one-shot scan needs; it does not require Telegram.
func (c *Config) ValidateScan() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "alpaca":
		if c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSecret == "" {
			return fmt.Errorf("data_source.alpaca_key and alpaca_secret are required for alpaca")
		}
	default:
		return fmt.Errorf("data_source.provider %q must be yahoo, alpaca or mock", c.DataSource.Provider)
	}
	switch c.Universe.Market {
	case "sp500":
	case "custom":
		if len(c.Universe.Tickers) == 0 {
			return fmt.Errorf("universe.tickers is required for the custom market")
		}
	default:
		return fmt.Errorf("universe.market %q must be sp500 or custom", c.Universe.Market)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if c.Scan.MinBars > c.DataSource.LookbackDays {
		return fmt.Errorf("scan.min_bars %d exceeds data_source.lookback_days %d", c.Scan.MinBars, c.DataSource.LookbackDays)
	}
	if c.Scan.BollingerTolerance < 0 || c.Scan.BollingerTolerance >= 1 {
		return fmt.Errorf("scan.bollinger_tolerance must be in [0,1)")
	}
	if c.Scan.VolumeMultiplier <= 0 {
		return fmt.Errorf("scan.volume_multiplier must be positive")
	}
	return nil
}

// Evaluator returns a strategy evaluator with the scan settings.
func (c *Config) Evaluator() *strategy.Evaluator {
	return &strategy.Evaluator{
		MinBars:          c.Scan.MinBars,
		TailLength:       c.Scan.TailLength,
		VolumeMultiplier: c.Scan.VolumeMultiplier,
	}
}
