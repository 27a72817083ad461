// Package scheduler runs the cron-driven scans and digests and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"Kolgejt/internal/collector"
	"Kolgejt/internal/config"
	"Kolgejt/internal/fundamentals"
	"Kolgejt/internal/model"
	"Kolgejt/internal/notifier"
	"Kolgejt/internal/overview"
	"Kolgejt/internal/scanner"
	"Kolgejt/internal/universe"
	"Kolgejt/internal/watchlist"
)

// Sender delivers formatted messages to a chat.
type Sender interface {
	SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error
}

// Settings are the non-collaborator knobs of a Scheduler.
type Settings struct {
	DefaultMarket      string
	BollingerTolerance float64
	Overview           overview.Options
	Fundamentals       fundamentals.Options
	// FundamentalsLimit caps the tickers queried per fundamentals run; 0 means all.
	FundamentalsLimit int
}

// Scheduler manages all cron tasks and chat commands.
type Scheduler struct {
	Cron         *cron.Cron
	Scanner      *scanner.Scanner
	Universes    map[string]universe.Source
	Fundamentals collector.FundamentalsFetcher
	Watchlist    *watchlist.Manager
	Notifier     Sender
	Settings     Settings
	Logger       *zap.Logger
	Ctx          context.Context

	mu      sync.Mutex
	running map[string]bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, universes map[string]universe.Source,
	ff collector.FundamentalsFetcher, wl *watchlist.Manager, n Sender, settings Settings, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithParser(config.CronParser)),
		Scanner:      sc,
		Universes:    universes,
		Fundamentals: ff,
		Watchlist:    wl,
		Notifier:     n,
		Settings:     settings,
		Logger:       logger,
		Ctx:          ctx,
		running:      map[string]bool{},
	}
}

// RegisterAll registers every scheduled scan plus the optional overview and fundamentals digests.
func (s *Scheduler) RegisterAll(jobs []config.ScanJob, overviewCron, fundamentalsCron, chatID string) error {
	for _, job := range jobs {
		if _, err := s.Cron.AddFunc(job.Cron, func() { s.RunScanJob(job) }); err != nil {
			return fmt.Errorf("register scan %s: %w", job.Name, err)
		}
		s.Logger.Info("scan scheduled", zap.String("name", job.Name), zap.String("cron", job.Cron))
	}
	if overviewCron != "" {
		if _, err := s.Cron.AddFunc(overviewCron, func() { s.trySend(chatID, s.overviewText(s.Ctx)) }); err != nil {
			return fmt.Errorf("register overview: %w", err)
		}
	}
	if fundamentalsCron != "" {
		if _, err := s.Cron.AddFunc(fundamentalsCron, func() { s.trySend(chatID, s.fundamentalsText(s.Ctx)) }); err != nil {
			return fmt.Errorf("register fundamentals: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunScanJob runs one scheduled scan and sends the report.
func (s *Scheduler) RunScanJob(job config.ScanJob) {
	s.Logger.Info("running scheduled scan", zap.String("name", job.Name))
	report, err := s.scan(s.Ctx, job.Market, nil, job.Strategy)
	if report != nil {
		report.Trigger = model.TriggerScheduled
	}
	if err != nil && report == nil {
		s.Logger.Error("scheduled scan failed", zap.String("name", job.Name), zap.Error(err))
		s.trySend(job.ChatID, fmt.Sprintf("❌ Scan %s failed: %v", job.Name, err))
		return
	}
	s.trySend(job.ChatID, notifier.FormatScanReport(job.Name, report))
}

// scan resolves the universe (market, or tickers when non-nil) and runs the scanner.
func (s *Scheduler) scan(ctx context.Context, market string, tickers []string, p model.StrategyParams) (*model.ScanReport, error) {
	if tickers == nil {
		var err error
		if tickers, err = s.resolve(ctx, market); err != nil {
			return nil, err
		}
	}
	return s.Scanner.Run(ctx, tickers, p, nil)
}

func (s *Scheduler) resolve(ctx context.Context, market string) ([]string, error) {
	if market == "" {
		market = s.Settings.DefaultMarket
	}
	src, ok := s.Universes[market]
	if !ok {
		return nil, fmt.Errorf("no universe for market %q", market)
	}
	tickers, err := src.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe %s: %w", market, err)
	}
	return tickers, nil
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, chatID, text string) string {
	cmd, args := splitCommand(text)
	switch cmd {
	case "/scan":
		return s.handleScan(ctx, chatID, args)
	case "/overview":
		return s.exclusive(chatID, func() string { return s.overviewText(ctx) })
	case "/fundamentals":
		return s.exclusive(chatID, func() string { return s.fundamentalsText(ctx) })
	case "/watch":
		if len(args) == 0 {
			return "Usage: /watch AAPL MSFT"
		}
		added, err := s.Watchlist.Add(chatID, args...)
		if err != nil && len(added) == 0 {
			return fmt.Sprintf("❌ %v", err)
		}
		reply := fmt.Sprintf("Added %d ticker(s).\n", len(added))
		if err != nil {
			reply += fmt.Sprintf("⚠️ %v\n", err)
		}
		return reply + notifier.FormatWatchlist(s.Watchlist.List(chatID))
	case "/unwatch":
		if len(args) == 0 {
			return "Usage: /unwatch AAPL"
		}
		n, err := s.Watchlist.Remove(chatID, args...)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return fmt.Sprintf("Removed %d ticker(s).\n", n) + notifier.FormatWatchlist(s.Watchlist.List(chatID))
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist.List(chatID))
	default:
		return HelpText
	}
}

func (s *Scheduler) handleScan(ctx context.Context, chatID string, args []string) string {
	req, err := ParseScan(args, s.Settings.BollingerTolerance)
	if err != nil {
		return fmt.Sprintf("❌ %v\n\n%s", err, HelpText)
	}
	var tickers []string
	title := "Scan " + strings.ToUpper(args[0])
	if req.UseWatchlist {
		tickers = s.Watchlist.List(chatID)
		if len(tickers) == 0 {
			return notifier.FormatWatchlist(nil)
		}
		title += " (watchlist)"
	}

	return s.exclusive(chatID, func() string {
		s.trySend(chatID, fmt.Sprintf("⏳ Running %s…", scanner.Describe(req.Params)))
		report, err := s.scan(ctx, "", tickers, req.Params)
		if err != nil && report == nil {
			return fmt.Sprintf("❌ Scan failed: %v", err)
		}
		return notifier.FormatScanReport(title, report)
	})
}

// exclusive runs fn unless another long command is already running for chatID.
func (s *Scheduler) exclusive(chatID string, fn func() string) string {
	s.mu.Lock()
	if s.running[chatID] {
		s.mu.Unlock()
		return "⏳ Another request is still running, please wait."
	}
	s.running[chatID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, chatID)
		s.mu.Unlock()
	}()
	return fn()
}

func (s *Scheduler) overviewText(ctx context.Context) string {
	tickers, err := s.resolve(ctx, "")
	if err != nil {
		return fmt.Sprintf("❌ Overview failed: %v", err)
	}
	ov, err := overview.Summarize(ctx, s.Scanner.History, tickers, s.Settings.Overview, s.Logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.Warn("overview incomplete", zap.Error(err))
	}
	return notifier.FormatOverview(ov)
}

func (s *Scheduler) fundamentalsText(ctx context.Context) string {
	if s.Fundamentals == nil {
		return "Fundamentals are not available with the configured data source."
	}
	tickers, err := s.resolve(ctx, "")
	if err != nil {
		return fmt.Sprintf("❌ Fundamentals failed: %v", err)
	}
	if n := s.Settings.FundamentalsLimit; n > 0 && len(tickers) > n {
		tickers = tickers[:n]
	}
	report, err := fundamentals.Rank(ctx, tickers, s.Fundamentals, s.Settings.Fundamentals, s.Logger)
	if err != nil {
		s.Logger.Warn("fundamentals incomplete", zap.Error(err))
	}
	return notifier.FormatFundamentals(report)
}

func (s *Scheduler) trySend(chatID, text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, chatID, text, 3); err != nil {
		s.Logger.Error("send notification failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}
