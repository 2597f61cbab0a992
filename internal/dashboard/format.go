// Package dashboard provides the number formatting shared by the TUI and
// the CLI.
package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var b strings.Builder
		start := len(s) % 3
		if start > 0 {
			b.WriteString(s[:start])
		}
		for i := start; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatGrouped formats v with comma separators and the given number of
// decimals.
func FormatGrouped(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := FormatInt(n)
	if frac != "" {
		out += "." + frac
	}
	if v < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

// FormatUSD formats a price as $X,XXX.XX. Sub-dollar prices keep enough
// decimals to stay readable.
func FormatUSD(p float64) string {
	switch {
	case p == 0:
		return "$0.00"
	case math.Abs(p) >= 1:
		return "$" + FormatGrouped(p, 2)
	case math.Abs(p) >= 0.01:
		return "$" + strconv.FormatFloat(p, 'f', 4, 64)
	default:
		return "$" + strconv.FormatFloat(p, 'f', 8, 64)
	}
}

// FormatChange formats a signed percentage as "+X.XX%" or "-X.XX%".
func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatTrillions formats a dollar amount in trillions, e.g. "$2.45T".
func FormatTrillions(v float64) string {
	return fmt.Sprintf("$%.2fT", v/1e12)
}

// FormatBillions formats a market cap in billions, e.g. "$1,320.55B".
func FormatBillions(v float64) string {
	return "$" + FormatGrouped(v/1e9, 2) + "B"
}

// FormatMillions formats a volume in millions, e.g. "$35,120.4M".
func FormatMillions(v float64) string {
	return "$" + FormatGrouped(v/1e6, 1) + "M"
}

// FormatCompact formats a dollar value with T/B/M/K suffixes.
func FormatCompact(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e12:
		return fmt.Sprintf("%.1fT", v/1e12)
	case a >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatScore formats a volatility score as a grouped integer.
func FormatScore(v float64) string {
	return FormatGrouped(v, 0)
}
