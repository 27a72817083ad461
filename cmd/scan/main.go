// Command scan runs one scan, overview or fundamentals ranking and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"Kolgejt/internal/app"
	"Kolgejt/internal/config"
	"Kolgejt/internal/fundamentals"
	"Kolgejt/internal/logging"
	"Kolgejt/internal/model"
	"Kolgejt/internal/overview"
	"Kolgejt/internal/scheduler"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the exit code: 0 on success, 1 when nothing could be produced and 2
// when an incomplete result was written.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath  = fs.String("config", "configs/config.yaml", "config file")
		mode     = fs.String("mode", "scan", "scan, overview or fundamentals")
		strategy = fs.String("strategy", "rsi", "rsi, sma, bb or rebound")
		param    = fs.String("param", "", "threshold, period or tolerance percent for the strategy")
		volume   = fs.Bool("vol", false, "require volume confirmation")
		tickers  = fs.String("tickers", "", "comma separated tickers instead of the configured universe")
		market   = fs.String("market", "", "universe market, overrides universe.market")
		timeout  = fs.Duration("timeout", 10*time.Minute, "overall deadline")
		color    = fs.Bool("color", false, "colorize JSON output")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	fail := func(format string, args ...any) int {
		fmt.Fprintf(stderr, format+"\n", args...)
		return 1
	}

	if v := os.Getenv("CONFIG_PATH"); v != "" && !isFlagSet(fs, "config") {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fail("load config: %v", err)
	}
	if *market != "" {
		cfg.Universe.Market = *market
	}
	if *tickers != "" {
		cfg.Universe.Market = "custom"
		cfg.Universe.Tickers = strings.Split(*tickers, ",")
	}
	cfg.Scans = nil
	if err := cfg.ValidateScan(); err != nil {
		return fail("config validation: %v", err)
	}

	// Logs go to stderr and stay quiet unless asked for, stdout carries the JSON.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger, err := logging.New(level)
	if err != nil {
		return fail("init logger: %v", err)
	}
	defer logger.Sync()

	svc, err := app.New(cfg, logger)
	if err != nil {
		return fail("init services: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	universe, err := svc.Universes[cfg.Universe.Market].Tickers(ctx)
	if err != nil {
		return fail("universe: %v", err)
	}

	var (
		result any
		runErr error
	)
	switch *mode {
	case "scan":
		args := []string{*strategy}
		if *param != "" {
			args = append(args, *param)
		}
		if *volume {
			args = append(args, "vol")
		}
		req, err := scheduler.ParseScan(args, cfg.Scan.BollingerTolerance)
		if err != nil {
			return fail("%v", err)
		}
		var report *model.ScanReport
		report, runErr = svc.Scanner.Run(ctx, universe, req.Params, func(done, total int) {
			fmt.Fprintf(stderr, "\rscanned %d/%d", done, total)
		})
		fmt.Fprintln(stderr)
		if report == nil {
			return fail("scan: %v", runErr)
		}
		result = report
	case "overview":
		result, runErr = overview.Summarize(ctx, svc.Collector, universe, overview.Options{
			SampleSize: cfg.Overview.SampleSize,
			Period:     cfg.Overview.Period,
			TopN:       cfg.Overview.TopN,
			Workers:    cfg.Scan.Workers,
		}, logger)
	case "fundamentals":
		if svc.Fundamentals == nil {
			return fail("fundamentals are not available for provider %s", cfg.DataSource.Provider)
		}
		if n := cfg.Fundamentals.Limit; n > 0 && len(universe) > n {
			universe = universe[:n]
		}
		result, runErr = fundamentals.Rank(ctx, universe, svc.Fundamentals, fundamentals.Options{
			TopN:    cfg.Fundamentals.TopN,
			Workers: cfg.Scan.Workers,
		}, logger)
	default:
		return fail("unknown mode %q", *mode)
	}
	if runErr != nil {
		logger.Warn("run incomplete", zap.Error(runErr))
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fail("encode result: %v", err)
	}
	out := pretty.Pretty(raw)
	if *color {
		out = pretty.Color(out, nil)
	}
	if _, err := stdout.Write(out); err != nil {
		return fail("write result: %v", err)
	}
	if runErr != nil {
		return 2
	}
	return 0
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
