package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"Kolgejt/internal/model"
)

// HelpText lists the chat commands.
const HelpText = `<b>Commands</b>
/scan rsi [threshold] [vol] [watch] - RSI(14) at or below threshold (default 30)
/scan sma [period] [vol] [watch] - close above SMA(period) (default 50)
/scan bb [tolerance%] [vol] [watch] - close at the lower Bollinger band (default 5%)
/scan rebound [threshold] [vol] [watch] - RSI crossing up through threshold above SMA(20) (default 35)
/overview - market breadth and top movers
/fundamentals - growth leaders and the strong-buy pick
/watch T [T...] - add tickers to your watchlist
/unwatch T [T...] - remove tickers
/watchlist - show your watchlist

"vol" requires volume 20% over its 20-day average; "watch" scans your watchlist instead of the market.`

var errUsage = errors.New("usage")

// ScanRequest is a parsed /scan command.
type ScanRequest struct {
	Params       model.StrategyParams
	UseWatchlist bool
}

// ParseScan parses the arguments of /scan. tolerance is the default Bollinger tolerance.
func ParseScan(args []string, tolerance float64) (ScanRequest, error) {
	var req ScanRequest
	if len(args) == 0 {
		return req, fmt.Errorf("%w: /scan rsi|sma|bb|rebound [param] [vol] [watch]", errUsage)
	}

	var (
		num    *float64
		volume bool
	)
	for _, a := range args[1:] {
		switch strings.ToLower(a) {
		case "vol", "volume":
			volume = true
		case "watch", "watchlist":
			req.UseWatchlist = true
		default:
			v, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
			if err != nil || num != nil {
				return req, fmt.Errorf("%w: unexpected argument %q", errUsage, a)
			}
			num = &v
		}
	}

	switch strings.ToLower(args[0]) {
	case "rsi":
		req.Params = model.RSIParams(orDefault(num, model.DefaultRSIThreshold))
	case "sma", "ma":
		p := orDefault(num, model.DefaultSMAPeriod)
		if p != float64(int(p)) {
			return req, fmt.Errorf("%w: sma period must be a whole number", errUsage)
		}
		req.Params = model.SMAParams(int(p))
	case "bb", "bollinger":
		if num != nil {
			tolerance = *num / 100
		}
		req.Params = model.BollingerParams(tolerance)
	case "rebound":
		req.Params = model.RSIReboundParams(orDefault(num, model.DefaultReboundThreshold), model.DefaultReboundTrendPeriod)
	default:
		return req, fmt.Errorf("%w: unknown strategy %q", errUsage, args[0])
	}
	req.Params = req.Params.WithVolume(volume)
	return req, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// splitCommand returns the lower-cased command without any @botname suffix, and its arguments.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, fields[1:]
}
