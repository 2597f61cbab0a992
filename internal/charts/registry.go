package charts

import (
	"log/slog"
	"sync"

	"cryptointel/internal/market"
)

// Chart is one constructed chart instance. It is released exactly once,
// before its replacement is constructed.
type Chart struct {
	id       uint64
	series   Series
	released bool
}

// ID is unique per construction, so a rebuilt chart never shares an ID with
// the instance it replaced.
func (c *Chart) ID() uint64 { return c.id }

// Series returns the chart's input series.
func (c *Chart) Series() Series { return c.series }

// Released reports whether the instance has been torn down.
func (c *Chart) Released() bool { return c.released }

// View renders the chart at the given size with the element at selected
// highlighted (-1 for none).
func (c *Chart) View(width, height, selected int) string {
	if c.released {
		return ""
	}
	return render(c.series, width, height, selected)
}

// Registry owns at most one live Chart per Kind.
type Registry struct {
	mu     sync.Mutex
	charts map[Kind]*Chart
	nextID uint64
	live   int
	log    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{charts: make(map[Kind]*Chart), log: log}
}

// Rebuild releases the current chart of kind, if any, and then constructs a
// new one from assets.
func (r *Registry) Rebuild(kind Kind, assets []market.AssetRecord) *Chart {
	series := Project(kind, assets)

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.charts[kind]; ok {
		r.release(old)
		delete(r.charts, kind)
	}
	r.nextID++
	c := &Chart{id: r.nextID, series: series}
	r.charts[kind] = c
	r.live++
	r.log.Debug("chart rebuilt", "kind", kind.String(), "id", c.id, "points", len(series.Points))
	return c
}

// RebuildAll rebuilds every chart, in display order.
func (r *Registry) RebuildAll(assets []market.AssetRecord) {
	for _, k := range Kinds {
		r.Rebuild(k, assets)
	}
}

// RebuildAnalytics rebuilds the analytics-view charts.
func (r *Registry) RebuildAnalytics(assets []market.AssetRecord) {
	for _, k := range AnalyticsKinds {
		r.Rebuild(k, assets)
	}
}

// Get returns the live chart of kind.
func (r *Registry) Get(kind Kind) (*Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[kind]
	return c, ok
}

// Live returns the number of constructed, unreleased charts.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Len returns the number of points in the live chart of kind.
func (r *Registry) Len(kind Kind) int {
	c, ok := r.Get(kind)
	if !ok {
		return 0
	}
	return len(c.series.Points)
}

// Resolve maps element index of chart kind to the coin_id it was built from.
func (r *Registry) Resolve(kind Kind, index int) (string, bool) {
	c, ok := r.Get(kind)
	if !ok || index < 0 || index >= len(c.series.Points) {
		return "", false
	}
	return c.series.Points[index].CoinID, true
}

// Close releases every chart.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.charts {
		r.release(c)
		delete(r.charts, k)
	}
}

func (r *Registry) release(c *Chart) {
	if c.released {
		return
	}
	c.released = true
	r.live--
}
