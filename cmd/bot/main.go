package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"Kolgejt/internal/app"
	"Kolgejt/internal/config"
	"Kolgejt/internal/fundamentals"
	"Kolgejt/internal/logging"
	"Kolgejt/internal/notifier"
	"Kolgejt/internal/overview"
	"Kolgejt/internal/scheduler"
	"Kolgejt/internal/watchlist"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Kolgejt starting", zap.String("config", cfgPath))
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}

	svc, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("init services", zap.Error(err))
	}
	defer svc.Close()

	wl, err := watchlist.NewManager(cfg.Watchlist.StateFile, cfg.Watchlist.MaxSize)
	if err != nil {
		logger.Fatal("init watchlist", zap.Error(err))
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, svc.Scanner, svc.Universes, svc.Fundamentals, wl, tn, scheduler.Settings{
		DefaultMarket:      cfg.Universe.Market,
		BollingerTolerance: cfg.Scan.BollingerTolerance,
		Overview: overview.Options{
			SampleSize: cfg.Overview.SampleSize,
			Period:     cfg.Overview.Period,
			TopN:       cfg.Overview.TopN,
			Workers:    cfg.Scan.Workers,
		},
		Fundamentals: fundamentals.Options{
			TopN:    cfg.Fundamentals.TopN,
			Workers: cfg.Scan.Workers,
		},
		FundamentalsLimit: cfg.Fundamentals.Limit,
	}, logger)
	if err := sched.RegisterAll(cfg.Scans, cfg.Overview.Cron, cfg.Fundamentals.Cron, cfg.Telegram.ChatID); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	// Optional: run every scheduled scan immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing scheduled scans now")
		go func() {
			for _, job := range cfg.Scans {
				sched.RunScanJob(job)
			}
		}()
	}

	logger.Info("Kolgejt is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
}
