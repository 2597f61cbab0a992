package charts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"cryptointel/internal/dashboard"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	barColors = map[Kind]lipgloss.Color{
		Dominance:  lipgloss.Color("10"),
		Volatility: lipgloss.Color("9"),
		Volume:     lipgloss.Color("13"),
	}
)

const labelWidth = 16

func formatValue(kind Kind, v float64) string {
	switch kind {
	case PriceTrend:
		return dashboard.FormatUSD(v)
	case Dominance:
		return dashboard.FormatBillions(v)
	case Volatility:
		return dashboard.FormatScore(v)
	case Volume:
		return dashboard.FormatMillions(v)
	}
	return fmt.Sprintf("%.2f", v)
}

func render(s Series, width, height, selected int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Kind.Title()))
	b.WriteByte('\n')
	if len(s.Points) == 0 {
		b.WriteString(emptyStyle.Render("  (no data)"))
		return b.String()
	}
	if s.Kind == PriceTrend {
		b.WriteString(renderLine(s, width, height, selected))
	} else {
		b.WriteString(renderBars(s, width, selected))
	}
	return b.String()
}

// renderLine plots the series with asciigraph and lists the points below so
// each element has a selectable row.
func renderLine(s Series, width, height, selected int) string {
	var b strings.Builder
	if len(s.Points) > 1 {
		if height < 4 {
			height = 4
		}
		plotWidth := width - 14
		if plotWidth < 10 {
			plotWidth = 10
		}
		b.WriteString(asciigraph.Plot(s.Values(),
			asciigraph.Height(height),
			asciigraph.Width(plotWidth),
			asciigraph.Precision(2),
			asciigraph.SeriesColors(asciigraph.Blue),
			asciigraph.Caption("Price (USD) by market cap rank"),
		))
		b.WriteByte('\n')
	}
	for i, p := range s.Points {
		line := fmt.Sprintf("%2d %-*s %s", i+1, labelWidth, truncate(p.Label, labelWidth), formatValue(s.Kind, p.Value))
		b.WriteString(styleRow(line, i == selected))
		if i < len(s.Points)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderBars draws one horizontal bar per point scaled to the largest value.
func renderBars(s Series, width, selected int) string {
	maxVal := 0.0
	for _, p := range s.Points {
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	barMax := width - labelWidth - 20
	if barMax < 10 {
		barMax = 10
	}
	bar := lipgloss.NewStyle().Foreground(barColors[s.Kind])

	var b strings.Builder
	for i, p := range s.Points {
		n := 0
		if maxVal > 0 && p.Value > 0 {
			n = int(p.Value / maxVal * float64(barMax))
			if n == 0 {
				n = 1
			}
		}
		label := fmt.Sprintf("%2d %-*s ", i+1, labelWidth, truncate(p.Label, labelWidth))
		b.WriteString(styleRow(label, i == selected))
		b.WriteString(bar.Render(strings.Repeat("█", n)))
		b.WriteString(" " + formatValue(s.Kind, p.Value))
		if i < len(s.Points)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func styleRow(s string, selected bool) string {
	if selected {
		return selectedStyle.Render(s)
	}
	return labelStyle.Render(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
