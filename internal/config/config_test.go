package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Kolgejt/internal/model"
	"Kolgejt/internal/strategy"
)

const sampleYAML = `
telegram:
  bot_token: file-token
  chat_id: "100"
data_source:
  provider: yahoo
  timeout: 5s
scan:
  workers: 4
  bollinger_tolerance: 0.03
scans:
  - name: oversold
    cron: "0 30 21 * * 1-5"
    strategy:
      kind: RSI
      threshold: 30
  - name: band
    cron: "@daily"
    market: custom
    strategy:
      kind: BOLLINGER
      require_volume_confirmation: true
universe:
  market: custom
  tickers: [AAPL, MSFT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileEnvAndDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("SCAN_TICKER_TIMEOUT", "3s")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("expected env override, got %q", cfg.Telegram.BotToken)
	}
	if cfg.DataSource.Timeout != 5*time.Second || cfg.Scan.TickerTimeout != 3*time.Second {
		t.Errorf("unexpected durations: %v %v", cfg.DataSource.Timeout, cfg.Scan.TickerTimeout)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.MinBars != strategy.DefaultMinBars {
		t.Errorf("unexpected scan settings: %+v", cfg.Scan)
	}
	if cfg.Cache.SQLitePath != "data/kolgejt.db" || cfg.Cache.UniverseTTL != 24*time.Hour {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}

	rsi := cfg.Scans[0]
	if rsi.Market != "custom" || rsi.ChatID != "100" || rsi.Strategy != model.RSIParams(30) {
		t.Errorf("unexpected rsi job: %+v", rsi)
	}
	band := cfg.Scans[1].Strategy
	if band.Period != 20 || band.StdDevMultiplier != 2 || band.Tolerance != 0.03 || !band.RequireVolumeConfirmation {
		t.Errorf("expected bollinger defaults filled in, got %+v", band)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if e := cfg.Evaluator(); e.TailLength != strategy.DefaultTailLength || e.VolumeMultiplier != 1.2 {
		t.Errorf("unexpected evaluator: %+v", e)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.Universe.Market != "sp500" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.ValidateScan(); err != nil {
		t.Errorf("defaults must be scannable: %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a non-numeric SCAN_WORKERS")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		patch string
		want  string
	}{
		{"bad cron", "\n  - name: x\n    cron: \"every day\"\n    strategy: {kind: SMA, period: 50}", "scans.x.cron"},
		{"bad strategy", "\n  - name: x\n    cron: \"@daily\"\n    strategy: {kind: RSI, threshold: 130}", "scans.x.strategy"},
		{"unnamed", "\n  - cron: \"@daily\"\n    strategy: {kind: SMA, period: 50}", "needs a name"},
		{"deeper than lookback", "\n  - name: x\n    cron: \"@daily\"\n    strategy: {kind: SMA, period: 200}\ndata_source: {lookback_days: 150}", "needs 202 bars"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := "telegram: {bot_token: t, chat_id: \"1\"}\nscans:" + tc.patch + "\n"
			cfg, err := Load(writeConfig(t, body))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	cfg, _ := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "t", "1"
	cfg.Scans = []ScanJob{{Name: "long", Cron: "@daily", Strategy: model.SMAParams(200)}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("SMA(200) fits the default lookback: %v", err)
	}
	cfg.DataSource.LookbackDays = 201
	if err := cfg.Validate(); !errors.Is(err, strategy.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for 201 bars, got %v", err)
	}
	cfg.Scans = nil
	cfg.DataSource.LookbackDays = 40
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "scan.min_bars") {
		t.Errorf("expected min_bars above lookback to fail, got %v", err)
	}
	cfg.DataSource.LookbackDays = 260
	cfg.DataSource.Provider = "alpaca"
	if err := cfg.Validate(); err == nil {
		t.Error("expected alpaca without keys to fail")
	}
	cfg.DataSource.Provider = "yahoo"
	cfg.Universe.Market = "custom"
	if err := cfg.Validate(); err == nil {
		t.Error("expected custom market without tickers to fail")
	}
}
