// Package ticker provides a restartable periodic timer for the bubbletea
// event loop. A Handle owns at most one live tick chain: restarting or
// stopping it invalidates ticks already in flight, so timers are replaced
// rather than accumulated.
package ticker

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is delivered to Update when a handle's interval elapses.
type TickMsg struct {
	ID  string
	Gen uint64
	At  time.Time
}

// Handle is a scoped periodic timer. It is not safe for concurrent use; it
// belongs to the model and is driven only from Update.
type Handle struct {
	id       string
	interval time.Duration
	gen      uint64
	active   bool
}

// New creates a stopped handle.
func New(id string, interval time.Duration) *Handle {
	return &Handle{id: id, interval: interval}
}

// ID returns the handle's identifier.
func (h *Handle) ID() string { return h.id }

// Interval returns the tick period.
func (h *Handle) Interval() time.Duration { return h.interval }

// Gen returns the current chain generation.
func (h *Handle) Gen() uint64 { return h.gen }

// Active reports whether the handle has a live tick chain.
func (h *Handle) Active() bool { return h.active }

// Restart cancels any pending tick and arms a new one.
func (h *Handle) Restart() tea.Cmd {
	h.gen++
	h.active = true
	return h.arm()
}

// Stop cancels any pending tick. Ticks already scheduled are dropped by Accept.
func (h *Handle) Stop() {
	h.gen++
	h.active = false
}

// Accept reports whether msg belongs to this handle's current chain.
func (h *Handle) Accept(msg TickMsg) bool {
	return h.active && msg.ID == h.id && msg.Gen == h.gen
}

// Next re-arms the chain after an accepted tick.
func (h *Handle) Next() tea.Cmd {
	if !h.active {
		return nil
	}
	return h.arm()
}

func (h *Handle) arm() tea.Cmd {
	id, gen := h.id, h.gen
	return tea.Tick(h.interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, Gen: gen, At: t}
	})
}
