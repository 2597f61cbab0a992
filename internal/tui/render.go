package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cryptointel/internal/dashboard"
	"cryptointel/internal/detail"
	"cryptointel/internal/market"
	"cryptointel/internal/views"
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	navStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	navActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nameStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(26)
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	highlightBG    = lipgloss.Color("236")
)

// hlStyle returns a copy of s with the highlight background applied when hl is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

func changeStyle(pct float64) lipgloss.Style {
	if pct < 0 {
		return lossStyle
	}
	return gainStyle
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	body := m.viewport.View()
	if m.modal.Visible() {
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
			m.modal.View(m.modalWidth()))
	}
	return m.renderHeader() + "\n" + body + "\n" + m.renderFooter()
}

func (m *Model) modalWidth() int {
	w := m.width - 4
	if w > 90 {
		w = 90
	}
	return w
}

// layoutModal records where the modal is drawn so pointer presses can be
// tested against it.
func (m *Model) layoutModal() {
	if !m.modal.Visible() || !m.ready {
		return
	}
	view := m.modal.View(m.modalWidth())
	w, h := lipgloss.Width(view), lipgloss.Height(view)
	x := (m.width - w) / 2
	y := headerH + (m.bodyHeight()-h)/2
	if x < 0 {
		x = 0
	}
	if y < headerH {
		y = headerH
	}
	m.modal.SetBounds(detail.Rect{X: x, Y: y, W: w, H: h})
}

func (m *Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" CRYPTO INTEL "))
	b.WriteString(" ")
	for i, v := range m.router.Views() {
		label := fmt.Sprintf(" %d %s ", i+1, v)
		if m.router.IsActive(v) {
			b.WriteString(navActiveStyle.Render(label))
		} else {
			b.WriteString(navStyle.Render(label))
		}
	}

	var status []string
	if sum, ok := m.store.Summary(); ok {
		status = append(status, "Last sync: "+sum.LastUpdated.Local().Format("15:04:05"))
	}
	if p := m.modal.Pending(); p != "" {
		status = append(status, "loading "+p+"…")
	}
	if m.inflight > 0 {
		status = append(status, "syncing…")
	}
	left := b.String()
	right := statusStyle.Render(strings.Join(status, "  "))
	if m.lastSync.AssetsErr != nil || m.lastSync.SummaryErr != nil {
		right = warnStyle.Render("stale ") + right
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFooter() string {
	if m.focus == focusSearch {
		return m.search.View()
	}
	var parts []string
	if q := m.search.Value(); q != "" {
		parts = append(parts, fmt.Sprintf("filter %q (%d)", q, len(m.rows)))
	}
	switch m.focus {
	case focusChart:
		parts = append(parts, "←/→ select · enter detail · c next chart · esc table")
	default:
		parts = append(parts, "/ search · r refresh · 1-3/tab views · c charts · ↑/↓ enter detail · q quit")
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

// refreshContent re-renders the active view into the viewport.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	var b strings.Builder
	m.tableTop = -1
	switch m.router.Active() {
	case views.Overview:
		b.WriteString(m.renderKPIs())
		b.WriteString("\n\n")
		b.WriteString(m.renderCharts(views.Overview))
		b.WriteString("\n\n")
		m.tableTop = strings.Count(b.String(), "\n")
		b.WriteString(m.renderTable())
	case views.Analytics:
		b.WriteString(m.renderCharts(views.Analytics))
	case views.Markets:
		m.tableTop = 0
		b.WriteString(m.renderTable())
	}
	m.viewport.SetContent(b.String())
}

// ensureVisible scrolls the viewport so the selected row is visible.
func (m *Model) ensureVisible() {
	if m.tableTop < 0 || !m.ready {
		return
	}
	line := m.tableTop + 1 + m.selected
	yOff := m.viewport.YOffset
	vpH := m.viewport.Height
	if line < yOff {
		m.viewport.SetYOffset(line)
	} else if line >= yOff+vpH {
		m.viewport.SetYOffset(line - vpH + 1)
	}
}

func (m *Model) renderKPIs() string {
	card := func(title, value, sub string) string {
		return cardStyle.Render(cardTitleStyle.Render(title) + "\n" +
			cardValueStyle.Render(value) + "\n" + sub)
	}

	capVal, avgVal := "-", "-"
	var leaders string
	if sum, ok := m.store.Summary(); ok {
		capVal = dashboard.FormatTrillions(sum.TotalMarketCap)
		avgVal = dashboard.FormatUSD(sum.AvgPrice)
		leaders = fmt.Sprintf("Gainer %s %s · Volatile %s %s",
			strings.ToUpper(sum.HighestGainer.Symbol),
			changeStyle(sum.HighestGainer.Value).Render(dashboard.FormatChange(sum.HighestGainer.Value)),
			strings.ToUpper(sum.MostVolatile.Symbol),
			dashboard.FormatCompact(sum.MostVolatile.Value))
	}

	cards := []string{card("MARKET CAP", capVal, dimStyle.Render(leaders))}
	if sp, ok := m.rotation.Current(); ok {
		c := sp.Current
		cards = append(cards,
			card("SPOTLIGHT: "+c.Name, strings.ToUpper(c.Symbol),
				changeStyle(c.PriceChange24h).Render(dashboard.FormatChange(c.PriceChange24h))),
			card(c.Name+" VOLUME", dashboard.FormatMillions(c.TotalVolume),
				dimStyle.Render(fmt.Sprintf("Rank #%d · %d/%d", c.MarketCapRank, sp.Cursor+1, sp.Total))),
		)
		cards = append(cards, card("AVG PRICE", avgVal, dimStyle.Render(fmt.Sprintf("Live: ▲%s ⚡%s",
			strings.ToUpper(sp.TopGainer.Symbol), strings.ToUpper(sp.MostVolatile.Symbol)))))
	} else {
		cards = append(cards, card("AVG PRICE", avgVal, ""))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderCharts(v views.Name) string {
	kinds := viewCharts(v)
	focused, hasFocus := m.focusedChart()

	half := m.width/2 - 2
	sideBySide := half >= 50
	width := m.width - 2
	if sideBySide {
		width = half
	}

	rendered := make([]string, 0, len(kinds))
	for _, k := range kinds {
		c, ok := m.charts.Get(k)
		if !ok {
			rendered = append(rendered, dimStyle.Render(k.Title()+"\n  (waiting for data)"))
			continue
		}
		sel := -1
		if hasFocus && focused == k {
			sel = m.chartSel
		}
		rendered = append(rendered, lipgloss.NewStyle().Width(width).Render(c.View(width, 10, sel)))
	}
	if sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}
	return strings.Join(rendered, "\n\n")
}

// Column widths.
const (
	colRank   = 4
	colName   = 18
	colSymbol = 7
	colPrice  = 14
	colChange = 9
	colCap    = 14
	colVolume = 14
)

func (m *Model) renderTable() string {
	var b strings.Builder
	hdr := fmt.Sprintf("%*s  %-*s %-*s %*s %*s %*s %*s",
		colRank, "#", colName, "NAME", colSymbol, "SYMBOL", colPrice, "PRICE",
		colChange, "24H", colCap, "MARKET CAP", colVolume, "VOLUME")
	b.WriteString(colHeaderStyle.Render(hdr))

	if len(m.rows) == 0 {
		b.WriteString("\n")
		if m.search.Value() != "" {
			b.WriteString(dimStyle.Render("  (no matching assets)"))
		} else {
			b.WriteString(dimStyle.Render("  (waiting for data)"))
		}
		return b.String()
	}
	for i, a := range m.rows {
		b.WriteString("\n")
		b.WriteString(m.renderRow(a, i == m.selected && m.focus != focusChart))
	}
	return b.String()
}

func (m *Model) renderRow(a market.AssetRecord, hl bool) string {
	name := a.Name
	if r := []rune(name); len(r) > colName {
		name = string(r[:colName-1]) + "…"
	}
	sp := hlStyle(lipgloss.NewStyle(), hl).Render(" ")
	return hlStyle(dimStyle, hl).Render(fmt.Sprintf("%*d", colRank, a.MarketCapRank)) + sp + sp +
		hlStyle(nameStyle, hl).Render(fmt.Sprintf("%-*s", colName, name)) + sp +
		hlStyle(symbolStyle, hl).Render(fmt.Sprintf("%-*s", colSymbol, strings.ToUpper(a.Symbol))) + sp +
		hlStyle(priceStyle, hl).Render(fmt.Sprintf("%*s", colPrice, dashboard.FormatUSD(a.CurrentPrice))) + sp +
		hlStyle(changeStyle(a.PriceChange24h), hl).Render(fmt.Sprintf("%*s", colChange, dashboard.FormatChange(a.PriceChange24h))) + sp +
		hlStyle(priceStyle, hl).Render(fmt.Sprintf("%*s", colCap, dashboard.FormatBillions(a.MarketCap))) + sp +
		hlStyle(dimStyle, hl).Render(fmt.Sprintf("%*s", colVolume, dashboard.FormatMillions(a.TotalVolume)))
}
