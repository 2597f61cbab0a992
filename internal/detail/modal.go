// Package detail holds the single-entity detail modal: its lookup lifecycle,
// its visibility, and its rendering.
package detail

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cryptointel/internal/dashboard"
	"cryptointel/internal/market"
	"cryptointel/internal/news"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 2)
	nameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	rankStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	kpiLabel     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	kpiValue     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	insightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	newsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// MaxHeadlines caps the headlines shown in the modal.
const MaxHeadlines = 5

// Rect is the modal's on-screen area in terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Modal is open or closed; there is never more than one. Only the most
// recent Request can open it.
type Modal struct {
	log     *slog.Logger
	latest  uint64
	pending string
	visible bool
	current market.AssetRecord
	news    []news.Headline
	bounds  Rect
}

// New creates a closed modal.
func New(log *slog.Logger) *Modal {
	if log == nil {
		log = slog.Default()
	}
	return &Modal{log: log}
}

// Request records a lookup for coinID and returns its request id. The
// modal's visibility does not change until Resolve.
func (m *Modal) Request(coinID string) uint64 {
	m.latest++
	m.pending = coinID
	return m.latest
}

// Pending returns the identifier of the latest outstanding request.
func (m *Modal) Pending() string { return m.pending }

// Resolve applies a lookup result. The modal opens on the first document when
// reqID is the latest request and the lookup succeeded with at least one
// document. Failures are logged and leave the modal as it was.
func (m *Modal) Resolve(reqID uint64, docs []market.AssetRecord, err error) bool {
	if reqID != m.latest {
		m.log.Debug("detail lookup superseded", "req", reqID, "latest", m.latest)
		return false
	}
	id := m.pending
	m.pending = ""
	if err != nil {
		m.log.Warn("detail lookup failed", "coin_id", id, "error", err)
		return false
	}
	if len(docs) == 0 {
		m.log.Warn("detail lookup empty", "coin_id", id)
		return false
	}
	m.current = docs[0]
	m.news = nil
	m.visible = true
	return true
}

// SetNews attaches headlines for the record currently shown. Headlines for a
// record that is no longer shown are dropped.
func (m *Modal) SetNews(coinID string, items []news.Headline) bool {
	if !m.visible || m.current.CoinID != coinID {
		return false
	}
	if len(items) > MaxHeadlines {
		items = items[:MaxHeadlines]
	}
	m.news = items
	return true
}

// Refresh replaces the shown record with a newer copy of the same entity.
// Records for another entity are ignored.
func (m *Modal) Refresh(a market.AssetRecord) bool {
	if !m.visible || a.CoinID != m.current.CoinID {
		return false
	}
	m.current = a
	return true
}

// Close hides the modal.
func (m *Modal) Close() {
	m.visible = false
	m.news = nil
}

// Visible reports whether the modal is open.
func (m *Modal) Visible() bool { return m.visible }

// Current returns the record on display.
func (m *Modal) Current() (market.AssetRecord, bool) {
	if !m.visible {
		return market.AssetRecord{}, false
	}
	return m.current, true
}

// SetBounds records where the modal was last drawn.
func (m *Modal) SetBounds(r Rect) { m.bounds = r }

// Bounds returns where the modal was last drawn.
func (m *Modal) Bounds() Rect { return m.bounds }

// Contains reports whether (x, y) is inside the open modal.
func (m *Modal) Contains(x, y int) bool {
	return m.visible && m.bounds.Contains(x, y)
}

// Insight is the derived sentence shown under the KPIs.
func Insight(a market.AssetRecord) string {
	return fmt.Sprintf("%s has a current volatility score of %s, "+
		"calculated from the 24h price swing relative to trading volume.",
		a.Name, dashboard.FormatScore(a.VolatilityScore))
}

// View renders the open modal, or "" when closed.
func (m *Modal) View(width int) string {
	if !m.visible {
		return ""
	}
	a := m.current
	if width < 40 {
		width = 40
	}
	inner := width - 6

	var b strings.Builder
	b.WriteString(nameStyle.Render(fmt.Sprintf("%s (%s)", a.Name, strings.ToUpper(a.Symbol))))
	b.WriteString("  ")
	b.WriteString(rankStyle.Render(fmt.Sprintf("MARKET RANK #%d", a.MarketCapRank)))
	b.WriteString("\n\n")

	change := gainStyle
	if a.PriceChange24h < 0 {
		change = lossStyle
	}
	kpis := []struct{ label, value string }{
		{"CURRENT PRICE", dashboard.FormatUSD(a.CurrentPrice)},
		{"24H CHANGE", change.Render(dashboard.FormatChange(a.PriceChange24h))},
		{"MARKET CAP", dashboard.FormatBillions(a.MarketCap)},
		{"TOTAL VOLUME", dashboard.FormatMillions(a.TotalVolume)},
		{"VOLATILITY", dashboard.FormatScore(a.VolatilityScore)},
	}
	for _, k := range kpis {
		b.WriteString(kpiLabel.Render(fmt.Sprintf("%-14s", k.label)))
		b.WriteString(kpiValue.Render(k.value))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(insightStyle.Width(inner).Render("Volatility insight: " + Insight(a)))

	if len(m.news) > 0 {
		b.WriteString("\n\n")
		b.WriteString(kpiLabel.Render("RECENT NEWS"))
		for _, n := range m.news {
			line := fmt.Sprintf("%s  %s", n.Time.Format("Jan 02 15:04"), n.Headline)
			b.WriteByte('\n')
			b.WriteString(newsStyle.Width(inner).Render(line))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("esc close · click outside to dismiss"))

	return boxStyle.Width(width - 2).Render(b.String())
}
