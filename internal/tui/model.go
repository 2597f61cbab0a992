// Package tui is the terminal dashboard: a bubbletea model whose Update loop
// is the single place dashboard state changes.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"cryptointel/internal/charts"
	"cryptointel/internal/datasync"
	"cryptointel/internal/detail"
	"cryptointel/internal/feed"
	"cryptointel/internal/market"
	"cryptointel/internal/news"
	"cryptointel/internal/rotation"
	"cryptointel/internal/search"
	"cryptointel/internal/ticker"
	"cryptointel/internal/views"
)

const syncTickerID = "sync"

// Layout rows outside the viewport.
const (
	headerH = 1
	footerH = 1
)

// Options configures a Model.
type Options struct {
	Source           feed.Source
	Store            *market.Store
	News             news.Fetcher              // nil disables headlines
	Notifications    <-chan feed.Notification // nil disables push refresh
	SyncInterval     time.Duration
	RotationInterval time.Duration
	Logger           *slog.Logger
}

// Messages.
type syncDoneMsg struct{ res datasync.Result }

type lookupMsg struct {
	req    uint64
	coinID string
	docs   []market.AssetRecord
	err    error
}

type newsMsg struct {
	coinID string
	items  []news.Headline
	err    error
}

type notifyMsg struct {
	note feed.Notification
	ok   bool
}

// Model is the dashboard state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	store     market.Reader
	src       feed.Source
	sync      *datasync.Controller
	syncTimer *ticker.Handle
	rotation  *rotation.Scheduler
	router    *views.Router
	charts    *charts.Registry
	modal     *detail.Modal
	news      news.Fetcher
	notes     <-chan feed.Notification

	search   textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	focus    focus
	rows     []market.AssetRecord // table rows after the search filter
	selected int
	tableTop int // content line of the table header
	chartIdx int // index into the active view's charts
	chartSel int // element within the focused chart

	inflight int
	lastSync datasync.Result
}

// New wires the dashboard components around opts.Store. The store is handed
// to the sync controller as its writer and to the rotation scheduler as its
// cursor writer; every other component reads it through market.Reader.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search name or symbol"
	ti.CharLimit = 64

	return Model{
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
		store:     opts.Store,
		src:       opts.Source,
		sync:      datasync.New(opts.Source, opts.Store, log),
		syncTimer: ticker.New(syncTickerID, opts.SyncInterval),
		rotation:  rotation.New(opts.Store, opts.Store, opts.RotationInterval),
		router:    views.NewRouter(),
		charts:    charts.NewRegistry(log),
		modal:     detail.New(log),
		news:      opts.News,
		notes:     opts.Notifications,
		search:    ti,
		inflight:  1, // Init's refresh
	}
}

func (m Model) Init() tea.Cmd {
	m.log.Info("dashboard started", "sync_every", m.syncTimer.Interval(),
		"rotate_every", m.rotation.Interval())
	cmds := []tea.Cmd{m.startRefresh(), m.syncTimer.Restart()}
	if m.notes != nil {
		cmds = append(cmds, waitForNote(m.notes))
	}
	return tea.Batch(cmds...)
}

// startRefresh runs one sync cycle off the event loop.
func (m *Model) startRefresh() tea.Cmd {
	m.inflight++
	c, ctx := m.sync, m.ctx
	return func() tea.Msg {
		return syncDoneMsg{res: c.Refresh(ctx)}
	}
}

// openDetail issues a lookup; the modal opens when it resolves.
func (m *Model) openDetail(coinID string) tea.Cmd {
	req := m.modal.Request(coinID)
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		docs, err := src.Lookup(ctx, coinID)
		return lookupMsg{req: req, coinID: coinID, docs: docs, err: err}
	}
}

func (m *Model) newsCmd(a market.AssetRecord) tea.Cmd {
	if m.news == nil {
		return nil
	}
	f, ctx := m.news, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		items, err := f.Headlines(ctx, a.Symbol, detail.MaxHeadlines)
		return newsMsg{coinID: a.CoinID, items: items, err: err}
	}
}

func waitForNote(ch <-chan feed.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		return notifyMsg{note: n, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if in := mouseIntent(msg, m.modal); in.Action == ActCloseModal {
			return m.apply(in)
		}
		if m.modal.Visible() {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.bodyHeight()
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.search.Width = m.width / 3
		m.refreshContent()
		m.layoutModal()
		return m, nil

	case ticker.TickMsg:
		switch msg.ID {
		case syncTickerID:
			if !m.syncTimer.Accept(msg) {
				return m, nil
			}
			return m, tea.Batch(m.startRefresh(), m.syncTimer.Next())
		case rotation.TickerID:
			cmd, ok := m.rotation.Tick(msg)
			if ok {
				m.refreshContent()
			}
			return m, cmd
		}
		return m, nil

	case syncDoneMsg:
		return m, m.applySync(msg.res)

	case lookupMsg:
		if !m.modal.Resolve(msg.req, msg.docs, msg.err) {
			return m, nil
		}
		m.layoutModal()
		cur, _ := m.modal.Current()
		return m, m.newsCmd(cur)

	case newsMsg:
		if msg.err != nil {
			m.log.Warn("fetching headlines", "coin_id", msg.coinID, "error", msg.err)
			return m, nil
		}
		if m.modal.SetNews(msg.coinID, msg.items) {
			m.layoutModal()
		}
		return m, nil

	case notifyMsg:
		if !msg.ok {
			return m, nil
		}
		m.log.Info("snapshot notification", "extracted_at", msg.note.ExtractedAt, "count", msg.note.Count)
		return m, tea.Batch(m.startRefresh(), waitForNote(m.notes))
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusSearch && !m.modal.Visible() {
		switch msg.String() {
		case "ctrl+c":
			return m.apply(Intent{Action: ActQuit})
		case "esc", "enter":
			m.search.Blur()
			m.focus = focusTable
			m.refreshContent()
			return m, nil
		}
		prev := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() == prev {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.onQueryChanged())
	}

	in := keyIntent(msg.String(), m.focus, m.modal.Visible())
	if in.Action == ActNone {
		if m.ready && !m.modal.Visible() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m.apply(in)
}

// apply performs the state transition an intent asks for.
func (m Model) apply(in Intent) (tea.Model, tea.Cmd) {
	switch in.Action {
	case ActQuit:
		m.syncTimer.Stop()
		m.rotation.Stop()
		m.charts.Close()
		m.cancel()
		return m, tea.Quit

	case ActRefresh:
		return m, m.startRefresh()

	case ActSwitchView:
		if t, ok := m.router.SwitchTo(in.View); ok {
			m.onTransition(t)
		}

	case ActNextView:
		m.onTransition(m.router.Next())

	case ActPrevView:
		m.onTransition(m.router.Prev())

	case ActFocusSearch:
		m.focus = focusSearch
		return m, m.search.Focus()

	case ActFocusTable:
		m.focus = focusTable

	case ActCycleChart:
		kinds := viewCharts(m.router.Active())
		if len(kinds) == 0 {
			return m, nil
		}
		if m.focus != focusChart {
			m.focus = focusChart
			m.chartIdx = 0
		} else {
			m.chartIdx = (m.chartIdx + 1) % len(kinds)
		}
		m.chartSel = 0

	case ActMoveRow:
		m.selected = clamp(m.selected+in.Delta, 0, len(m.rows)-1)
		m.refreshContent()
		m.ensureVisible()
		return m, nil

	case ActOpenRow:
		if m.selected < len(m.rows) {
			return m, m.openDetail(m.rows[m.selected].CoinID)
		}
		return m, nil

	case ActMoveChart:
		if kind, ok := m.focusedChart(); ok {
			m.chartSel = clamp(m.chartSel+in.Delta, 0, m.charts.Len(kind)-1)
		}

	case ActOpenChart:
		kind, ok := m.focusedChart()
		if !ok {
			return m, nil
		}
		id, ok := m.charts.Resolve(kind, m.chartSel)
		if !ok {
			return m, nil
		}
		return m, m.openDetail(id)

	case ActCloseModal:
		m.modal.Close()
	}
	m.refreshContent()
	return m, nil
}

// applySync updates derived state after a refresh cycle.
func (m *Model) applySync(res datasync.Result) tea.Cmd {
	if m.inflight > 0 {
		m.inflight--
	}
	// A superseded cycle must not replace the status of the newer one.
	if !res.Superseded {
		m.lastSync = res
	}

	var cmd tea.Cmd
	if res.AssetsApplied {
		assets := m.store.Assets()
		m.applyFilter()
		m.charts.RebuildAll(assets)
		m.chartSel = clamp(m.chartSel, 0, len(assets)-1)
		cmd = m.rotation.Start()
		if cur, ok := m.modal.Current(); ok {
			if rec, found := m.store.Find(cur.CoinID); found {
				m.modal.Refresh(rec)
				m.layoutModal()
			}
		}
	}
	if res.AssetsApplied || res.SummaryApplied {
		m.log.Debug("snapshot applied", "seq", res.Seq, "version", m.store.Version(),
			"assets", res.AssetCount)
	}
	m.refreshContent()
	return cmd
}

// onQueryChanged re-filters the table and, on an exact match, requests the
// detail modal for the matched record.
func (m *Model) onQueryChanged() tea.Cmd {
	m.applyFilter()
	m.refreshContent()
	if rec, ok := search.ExactMatch(m.store.Assets(), m.search.Value()); ok {
		return m.openDetail(rec.CoinID)
	}
	return nil
}

func (m *Model) applyFilter() {
	m.rows = search.Apply(m.store.Assets(), m.search.Value())
	m.selected = clamp(m.selected, 0, len(m.rows)-1)
}

func (m *Model) onTransition(t views.Transition) {
	if m.focus == focusChart {
		m.focus = focusTable
	}
	m.chartIdx, m.chartSel = 0, 0
	if t.RebuildCharts {
		m.charts.RebuildAnalytics(m.store.Assets())
	}
	m.refreshContent()
	if m.ready {
		m.viewport.GotoTop()
	}
}

// viewCharts lists the charts shown on view v.
func viewCharts(v views.Name) []charts.Kind {
	switch v {
	case views.Overview:
		return []charts.Kind{charts.PriceTrend, charts.Dominance}
	case views.Analytics:
		return charts.AnalyticsKinds
	}
	return nil
}

func (m *Model) focusedChart() (charts.Kind, bool) {
	if m.focus != focusChart {
		return 0, false
	}
	kinds := viewCharts(m.router.Active())
	if m.chartIdx >= len(kinds) {
		return 0, false
	}
	return kinds[m.chartIdx], true
}

func (m *Model) bodyHeight() int {
	h := m.height - headerH - footerH
	if h < 1 {
		h = 1
	}
	return h
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
