// Package rotation cycles the spotlight cursor over the asset collection on
// a fixed cadence, independent of the refresh cadence.
package rotation

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cryptointel/internal/market"
	"cryptointel/internal/ticker"
)

// TickerID identifies the rotation tick chain in the event loop.
const TickerID = "rotation"

// Spotlight is what one rotation frame shows: the record under the cursor
// and two collection-wide leaders recomputed from the same snapshot.
type Spotlight struct {
	Cursor       int
	Total        int
	Current      market.AssetRecord
	TopGainer    market.AssetRecord
	MostVolatile market.AssetRecord
}

// Compute derives the spotlight for cursor over assets. It returns false for
// an empty collection. A cursor past the end wraps.
func Compute(assets []market.AssetRecord, cursor int) (Spotlight, bool) {
	n := len(assets)
	if n == 0 {
		return Spotlight{}, false
	}
	if cursor < 0 || cursor >= n {
		cursor = ((cursor % n) + n) % n
	}
	sp := Spotlight{
		Cursor:       cursor,
		Total:        n,
		Current:      assets[cursor],
		TopGainer:    assets[0],
		MostVolatile: assets[0],
	}
	// Strict comparison keeps the first record on ties.
	for _, a := range assets[1:] {
		if a.PriceChange24h > sp.TopGainer.PriceChange24h {
			sp.TopGainer = a
		}
		if a.VolatilityScore > sp.MostVolatile.VolatilityScore {
			sp.MostVolatile = a
		}
	}
	return sp, true
}

// Scheduler owns the cursor writer and the rotation timer.
type Scheduler struct {
	r     market.Reader
	w     market.CursorWriter
	timer *ticker.Handle
}

// New creates a stopped scheduler.
func New(r market.Reader, w market.CursorWriter, interval time.Duration) *Scheduler {
	return &Scheduler{r: r, w: w, timer: ticker.New(TickerID, interval)}
}

// Start resets the cursor to 0 and replaces the rotation timer. Call it
// whenever the asset collection is replaced.
func (s *Scheduler) Start() tea.Cmd {
	s.w.SetCursor(0)
	return s.timer.Restart()
}

// Stop cancels the rotation timer.
func (s *Scheduler) Stop() {
	s.timer.Stop()
}

// Interval returns the rotation cadence.
func (s *Scheduler) Interval() time.Duration { return s.timer.Interval() }

// Running reports whether the rotation timer is armed.
func (s *Scheduler) Running() bool { return s.timer.Active() }

// Tick advances the cursor if msg belongs to the current timer and re-arms
// it. ok is false for ticks from a replaced or stopped timer.
func (s *Scheduler) Tick(msg ticker.TickMsg) (cmd tea.Cmd, ok bool) {
	if !s.timer.Accept(msg) {
		return nil, false
	}
	s.Advance()
	return s.timer.Next(), true
}

// Advance moves the cursor one step, wrapping at the collection length.
// On an empty collection the cursor stays at 0.
func (s *Scheduler) Advance() {
	n := len(s.r.Assets())
	if n == 0 {
		s.w.SetCursor(0)
		return
	}
	s.w.SetCursor((s.r.Cursor() + 1) % n)
}

// Current returns the spotlight for the current cursor, or false when there
// is nothing to show.
func (s *Scheduler) Current() (Spotlight, bool) {
	return Compute(s.r.Assets(), s.r.Cursor())
}
