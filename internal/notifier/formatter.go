package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"Kolgejt/internal/model"
	"Kolgejt/internal/scanner"
)

// MaxSignalRows bounds the signal lines of one scan message.
const MaxSignalRows = 40

// FormatScanReport formats a scan report into a Telegram message.
func FormatScanReport(title string, r *model.ScanReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📡 <b>%s</b> | %s\n", html.EscapeString(title), r.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s\n", html.EscapeString(scanner.Describe(r.Strategy))))
	b.WriteString(fmt.Sprintf("Scanned %d/%d in %s", r.Processed, r.Total, r.FinishedAt.Sub(r.StartedAt).Round(time.Second)))
	if r.Skipped > 0 || r.Failed > 0 {
		b.WriteString(fmt.Sprintf(" (skipped %d, failed %d)", r.Skipped, r.Failed))
	}
	b.WriteString("\n")
	if r.Partial {
		b.WriteString("⚠️ Scan interrupted, results are partial\n")
	}
	b.WriteString("\n")

	if len(r.Signals) == 0 {
		b.WriteString("No tickers matched.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("✅ <b>%d matches</b>\n", len(r.Signals)))
	for i, s := range r.Signals {
		if i == MaxSignalRows {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(r.Signals)-MaxSignalRows))
			break
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> %.2f (%+.2f%%) %s=%.2f",
			html.EscapeString(s.Ticker), s.LastClose, s.DayChangePct, s.IndicatorName, s.IndicatorValue))
		if r.Strategy.RequireVolumeConfirmation {
			b.WriteString(fmt.Sprintf(" vol×%.1f", s.VolumeRatio))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatOverview formats the market overview.
func FormatOverview(ov *model.MarketOverview) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌐 <b>Market overview</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Sampled: %d", ov.Sampled))
	if ov.Failed > 0 {
		b.WriteString(fmt.Sprintf(" (%d unavailable)", ov.Failed))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Advancers: %d | Decliners: %d\n", ov.Advancers, ov.Decliners))
	b.WriteString(fmt.Sprintf("Average day change: %+.2f%%\n", ov.AvgDayChangePct))

	writeMovers(&b, "📈 <b>Top gainers</b>", ov.TopGainers, ov.PeriodBars)
	writeMovers(&b, "📉 <b>Top losers</b>", ov.TopLosers, ov.PeriodBars)
	return b.String()
}

func writeMovers(b *strings.Builder, header string, movers []model.Mover, period int) {
	if len(movers) == 0 {
		return
	}
	b.WriteString("\n" + header + "\n")
	for _, m := range movers {
		b.WriteString(fmt.Sprintf("  %s %.2f %+.2f%% (%dd %+.2f%%)\n",
			html.EscapeString(m.Symbol), m.LastClose, m.DayChangePct, period, m.PeriodChangePct))
	}
}

// FormatFundamentals formats the fundamentals ranking.
func FormatFundamentals(r *model.FundamentalsReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏦 <b>Fundamentals</b> | %s\n\n", time.Now().Format("2006-01-02")))

	if p := r.Pick; p != nil {
		b.WriteString(fmt.Sprintf("⭐ <b>Strong buy:</b> %s %.2f → %.2f (%+.1f%%)\n\n",
			html.EscapeString(p.Symbol), p.CurrentPrice, p.TargetPrice, p.UpsidePct))
	}

	if len(r.Ranked) == 0 {
		b.WriteString("No growth data available.\n")
	} else {
		b.WriteString("<b>Growth leaders</b>\n")
	}
	for i, s := range r.Ranked {
		b.WriteString(fmt.Sprintf("%d. %s score %.1f%% (rev %+.1f%%, eps %+.1f%%)",
			i+1, html.EscapeString(s.Symbol), s.GrowthScore*100, s.RevenueGrowth*100, s.EarningsGrowth*100))
		if s.HasEPS {
			b.WriteString(" " + beat("EPS", s.EPSBeat, s.EPSSurprisePct))
		}
		if s.HasRevenue {
			b.WriteString(" " + beat("Rev", s.RevenueBeat, s.RevenueSurprise))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nEvaluated %d, unavailable %d", r.Evaluated, r.Failed))
	return b.String()
}

func beat(label string, ok bool, pct float64) string {
	mark := "❌"
	if ok {
		mark = "✅"
	}
	return fmt.Sprintf("%s%s%+.1f%%", label, mark, pct)
}

// FormatWatchlist formats one chat's watchlist.
func FormatWatchlist(tickers []string) string {
	if len(tickers) == 0 {
		return "👀 Your watchlist is empty. Add tickers with /watch AAPL MSFT"
	}
	escaped := make([]string, len(tickers))
	for i, t := range tickers {
		escaped[i] = html.EscapeString(t)
	}
	return fmt.Sprintf("👀 <b>Watchlist</b> (%d)\n%s", len(tickers), strings.Join(escaped, ", "))
}
