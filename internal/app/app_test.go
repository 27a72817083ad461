package app

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"Kolgejt/internal/config"
	"Kolgejt/internal/model"
)

func TestNew_MockProvider(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.DataSource.Provider = "mock"
	cfg.Universe.Market = "custom"
	cfg.Universe.Tickers = []string{"aapl", "brk.b"}
	cfg.Cache.RedisHost = ""

	s, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	if s.Fundamentals != nil {
		t.Error("mock provider has no fundamentals")
	}
	tickers, err := s.Universes["custom"].Tickers(context.Background())
	if err != nil || len(tickers) != 2 || tickers[1] != "BRK-B" {
		t.Fatalf("unexpected universe: %v (%v)", tickers, err)
	}
	report, err := s.Scanner.Run(context.Background(), tickers, model.SMAParams(50), nil)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(report.Signals) != 2 {
		t.Errorf("expected both mock tickers to trend up, got %d signals", len(report.Signals))
	}
}

func TestNew_UnknownMarket(t *testing.T) {
	cfg, _ := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	cfg.DataSource.Provider = "mock"
	cfg.Cache.RedisHost = ""
	cfg.Universe.Market = "asx"
	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Error("expected an error for an unknown market")
	}
}
