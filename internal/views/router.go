// Package views selects which dashboard view is active.
package views

// Name identifies a dashboard view.
type Name string

const (
	Overview  Name = "overview"
	Analytics Name = "analytics"
	Markets   Name = "markets"
)

// All lists the views in navigation order.
var All = []Name{Overview, Analytics, Markets}

// Transition describes a successful view switch.
type Transition struct {
	From Name
	To   Name
	// RebuildCharts is set on every entry into the analytics view, including
	// a switch from analytics to itself.
	RebuildCharts bool
}

// Router is a finite-state selector over a fixed set of views. Exactly one
// view is active at any time.
type Router struct {
	views  []Name
	active int
}

// NewRouter creates a router over views with the first one active. An empty
// list selects All.
func NewRouter(views ...Name) *Router {
	if len(views) == 0 {
		views = All
	}
	vs := make([]Name, len(views))
	copy(vs, views)
	return &Router{views: vs}
}

// Active returns the active view.
func (r *Router) Active() Name { return r.views[r.active] }

// Views returns the views in navigation order.
func (r *Router) Views() []Name {
	out := make([]Name, len(r.views))
	copy(out, r.views)
	return out
}

// IsActive reports whether name is the active view; the nav indicator for a
// view is lit exactly when this is true.
func (r *Router) IsActive(name Name) bool { return r.Active() == name }

// SwitchTo activates the named view. Unknown names leave the router unchanged
// and return false.
func (r *Router) SwitchTo(name Name) (Transition, bool) {
	for i, v := range r.views {
		if v != name {
			continue
		}
		t := Transition{From: r.Active(), To: v, RebuildCharts: v == Analytics}
		r.active = i
		return t, true
	}
	return Transition{}, false
}

// Next activates the view after the active one, wrapping.
func (r *Router) Next() Transition {
	t, _ := r.SwitchTo(r.views[(r.active+1)%len(r.views)])
	return t
}

// Prev activates the view before the active one, wrapping.
func (r *Router) Prev() Transition {
	t, _ := r.SwitchTo(r.views[(r.active-1+len(r.views))%len(r.views)])
	return t
}
