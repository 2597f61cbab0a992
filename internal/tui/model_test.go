package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"cryptointel/internal/charts"
	"cryptointel/internal/datasync"
	"cryptointel/internal/feed"
	"cryptointel/internal/market"
	"cryptointel/internal/rotation"
	"cryptointel/internal/ticker"
	"cryptointel/internal/views"
)

type fakeSource struct {
	assets    []market.AssetRecord
	assetsErr error
	summary   market.SummaryRecord
	lookups   []string
}

func (f *fakeSource) Summary(context.Context) (market.SummaryRecord, error) {
	return f.summary, nil
}

func (f *fakeSource) Assets(context.Context) ([]market.AssetRecord, error) {
	return f.assets, f.assetsErr
}

func (f *fakeSource) Lookup(_ context.Context, q string) ([]market.AssetRecord, error) {
	f.lookups = append(f.lookups, q)
	for _, a := range f.assets {
		if a.CoinID == q {
			return []market.AssetRecord{a}, nil
		}
	}
	return nil, feed.ErrNotFound
}

func testAssets() []market.AssetRecord {
	return []market.AssetRecord{
		{CoinID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: 67000, MarketCapRank: 1, MarketCap: 1.3e12, TotalVolume: 3e10, PriceChange24h: 1.2, VolatilityScore: 3.6e10},
		{CoinID: "ethereum", Name: "Ethereum", Symbol: "eth", CurrentPrice: 3500, MarketCapRank: 2, MarketCap: 4.2e11, TotalVolume: 1.5e10, PriceChange24h: 3.4, VolatilityScore: 5.1e10},
		{CoinID: "token-a", Name: "Token", Symbol: "tka", CurrentPrice: 1, MarketCapRank: 3, MarketCap: 1e9, TotalVolume: 1e8, PriceChange24h: -0.5, VolatilityScore: 5e7},
		{CoinID: "token-b", Name: "Token", Symbol: "tkb", CurrentPrice: 2, MarketCapRank: 4, MarketCap: 9e8, TotalVolume: 2e8, PriceChange24h: -1.5, VolatilityScore: 3e8},
	}
}

func newTestModel(src *fakeSource) Model {
	m := New(Options{
		Source:           src,
		Store:            market.NewStore(),
		SyncInterval:     time.Hour,
		RotationInterval: time.Millisecond,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return next.(Model)
}

// synced runs one refresh cycle through the event loop.
func synced(t *testing.T, m Model) Model {
	t.Helper()
	res := m.sync.Refresh(context.Background())
	next, _ := m.Update(syncDoneMsg{res: res})
	return next.(Model)
}

// run executes cmd and feeds its message back into Update.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSyncPopulatesTableChartsAndRotation(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))

	require.Len(t, m.rows, 4)
	require.Equal(t, 4, m.charts.Live())
	require.True(t, m.rotation.Running())
	require.Equal(t, 0, m.inflight)

	out := m.View()
	require.Contains(t, out, "Bitcoin")
	require.Contains(t, out, "SPOTLIGHT: Bitcoin")
}

func TestFailedSyncKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	m := synced(t, newTestModel(src))
	old, _ := m.charts.Get(charts.PriceTrend)

	src.assetsErr = errors.New("connection refused")
	m = synced(t, m)
	require.Len(t, m.rows, 4)
	cur, _ := m.charts.Get(charts.PriceTrend)
	require.Equal(t, old.ID(), cur.ID(), "charts must not rebuild on a failed sync")
	require.Contains(t, m.View(), "stale")
}

func TestSupersededSyncIsNotStale(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))
	m.inflight = 1

	next, _ := m.Update(syncDoneMsg{res: datasync.Result{Seq: 1, Superseded: true}})
	m = next.(Model)
	require.Equal(t, 0, m.inflight)
	require.Len(t, m.rows, 4)
	require.NotContains(t, m.View(), "stale")
}

func TestRotationTickAdvancesSpotlight(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))

	// Restart to get a tick command for the live timer generation.
	cmd := m.rotation.Start()
	msg := cmd().(ticker.TickMsg)
	require.Equal(t, rotation.TickerID, msg.ID)
	next, _ := m.Update(msg)
	m = next.(Model)
	sp, ok := m.rotation.Current()
	require.True(t, ok)
	require.Equal(t, "ethereum", sp.Current.CoinID)
}

func TestStaleSyncTickIgnored(t *testing.T) {
	m := newTestModel(&fakeSource{assets: testAssets()})
	m.syncTimer.Restart()
	stale := ticker.TickMsg{ID: syncTickerID, Gen: m.syncTimer.Gen() - 1}
	before := m.inflight
	next, cmd := m.Update(stale)
	require.Nil(t, cmd)
	require.Equal(t, before, next.(Model).inflight)
}

func TestSearchExactMatchOpensDetail(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	m := synced(t, newTestModel(src))

	next, _ := m.Update(key("/"))
	m = next.(Model)
	require.Equal(t, focusSearch, m.focus)

	m.search.SetValue("ET")
	cmd := m.onQueryChanged()
	require.Nil(t, cmd, "substring without exact match must not request detail")
	require.Len(t, m.rows, 1)
	require.False(t, m.modal.Visible())

	m.search.SetValue("eth")
	cmd = m.onQueryChanged()
	m = run(t, m, cmd)
	require.True(t, m.modal.Visible())
	cur, _ := m.modal.Current()
	require.Equal(t, "ethereum", cur.CoinID)
	require.Equal(t, []string{"ethereum"}, src.lookups)
}

func TestSearchEmptyQueryRestoresAllRows(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))
	m.search.SetValue("bit")
	m.onQueryChanged()
	require.Len(t, m.rows, 1)
	m.search.SetValue("")
	m.onQueryChanged()
	require.Equal(t, testAssets(), m.rows)
}

func TestFailedLookupLeavesModalClosed(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	m := synced(t, newTestModel(src))
	m = run(t, m, m.openDetail("unknown-coin"))
	require.False(t, m.modal.Visible())
}

func TestRowEnterOpensSelected(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))
	next, _ := m.Update(key("down"))
	m = next.(Model)
	_, cmd := m.Update(key("enter"))
	m = run(t, m, cmd)
	cur, ok := m.modal.Current()
	require.True(t, ok)
	require.Equal(t, "ethereum", cur.CoinID)

	// Any key but close is swallowed while open.
	next, _ = m.Update(key("down"))
	m = next.(Model)
	require.True(t, m.modal.Visible())

	next, _ = m.Update(key("esc"))
	require.False(t, next.(Model).modal.Visible())
}

func TestClickOutsideModalCloses(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))
	m = run(t, m, m.openDetail("bitcoin"))
	require.True(t, m.modal.Visible())

	b := m.modal.Bounds()
	require.Positive(t, b.W)

	inside := tea.MouseMsg{X: b.X + 1, Y: b.Y + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	next, _ := m.Update(inside)
	m = next.(Model)
	require.True(t, m.modal.Visible())

	outside := tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	next, _ = m.Update(outside)
	require.False(t, next.(Model).modal.Visible())
}

func TestChartSelectionResolvesByID(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	m := synced(t, newTestModel(src))

	next, _ := m.Update(key("2"))
	m = next.(Model)
	require.Equal(t, views.Analytics, m.router.Active())

	next, _ = m.Update(key("c"))
	m = next.(Model)
	require.Equal(t, focusChart, m.focus)

	// Volatility chart: third and fourth bars are both labelled "Token".
	for i := 0; i < 3; i++ {
		next, _ = m.Update(key("right"))
		m = next.(Model)
	}
	_, cmd := m.Update(key("enter"))
	m = run(t, m, cmd)
	cur, _ := m.modal.Current()
	require.Equal(t, "token-b", cur.CoinID)
}

func TestAnalyticsActivationRebuildsCharts(t *testing.T) {
	m := synced(t, newTestModel(&fakeSource{assets: testAssets()}))
	first, _ := m.charts.Get(charts.Volatility)

	next, _ := m.Update(key("2"))
	m = next.(Model)
	second, _ := m.charts.Get(charts.Volatility)
	require.NotEqual(t, first.ID(), second.ID())
	require.True(t, first.Released())

	next, _ = m.Update(key("2"))
	m = next.(Model)
	third, _ := m.charts.Get(charts.Volatility)
	require.NotEqual(t, second.ID(), third.ID())
	require.Equal(t, 4, m.charts.Live())
}

func TestViewSwitchKeepsOneActive(t *testing.T) {
	m := newTestModel(&fakeSource{})
	for _, k := range []string{"3", "1", "2", "9"} {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	require.Equal(t, views.Analytics, m.router.Active())
	header := m.renderHeader()
	require.Equal(t, 1, strings.Count(header, "2 analytics"))
}

func TestEmptyStoreRendersWithoutPanic(t *testing.T) {
	m := newTestModel(&fakeSource{})
	require.NotPanics(t, func() { _ = m.View() })
	m = synced(t, m)
	require.Contains(t, m.View(), "waiting for data")
}

func TestKeyIntent(t *testing.T) {
	tests := []struct {
		key   string
		focus focus
		modal bool
		want  Intent
	}{
		{"q", focusTable, false, Intent{Action: ActQuit}},
		{"r", focusTable, false, Intent{Action: ActRefresh}},
		{"2", focusTable, false, Intent{Action: ActSwitchView, View: views.Analytics}},
		{"down", focusTable, false, Intent{Action: ActMoveRow, Delta: 1}},
		{"down", focusChart, false, Intent{Action: ActMoveChart, Delta: 1}},
		{"left", focusTable, false, Intent{}},
		{"enter", focusChart, false, Intent{Action: ActOpenChart}},
		{"esc", focusChart, false, Intent{Action: ActFocusTable}},
		{"esc", focusTable, true, Intent{Action: ActCloseModal}},
		{"r", focusTable, true, Intent{}},
		{"ctrl+c", focusTable, true, Intent{Action: ActQuit}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, keyIntent(tt.key, tt.focus, tt.modal), "keyIntent(%q, %d, %v)", tt.key, tt.focus, tt.modal)
	}
}

func TestSyncRefreshesOpenDetail(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	m := synced(t, newTestModel(src))
	m = run(t, m, m.openDetail("bitcoin"))
	require.True(t, m.modal.Visible())

	src.assets = testAssets()
	src.assets[0].CurrentPrice = 70000
	m = synced(t, m)
	cur, ok := m.modal.Current()
	require.True(t, ok)
	require.Equal(t, 70000.0, cur.CurrentPrice)
}
