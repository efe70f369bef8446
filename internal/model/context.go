package model

import (
	"fmt"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Window is an inclusive day interval. Empty when Lo > Hi.
type Window struct {
	Lo, Hi int
}

// Empty reports whether the window covers no days.
func (w Window) Empty() bool { return w.Lo > w.Hi }

// Contains reports whether day t falls inside the window.
func (w Window) Contains(t int) bool { return t >= w.Lo && t <= w.Hi }

// Len is the number of days in the window.
func (w Window) Len() int {
	if w.Empty() {
		return 0
	}
	return w.Hi - w.Lo + 1
}

// Constraint contributes rows (and auxiliary variables) to a stage's
// model. Constraints are stateless across stages: Apply is called once
// per stage build with a fresh Context.
type Constraint interface {
	Name() string
	Apply(*Context) error
}

// Objective builds one stage's linear objective. Scale is the divisor
// converting the solver's integer optimum back to reporting units
// (currency, hours, area-days, counts).
type Objective interface {
	Name() string
	Build(*Context) (solve.LinExpr, solve.Sense, error)
	Scale() float64
}

// DefaultResourceCap is the daily capacity assumed for resources that
// carry no explicit capacity: 24h in time units.
const DefaultResourceCap = 24 * plan.TimeScale

// Context is one stage's model under construction: the plan, the
// underlying integer model, the variable registry and the precomputed
// creation windows.
type Context struct {
	Plan  *plan.Plan
	Model *solve.Model
	Vars  *Registry

	// EventWindow maps event id to its admissible firing days.
	EventWindow map[string]Window

	// OccSpan maps crop id to the span inside which the crop may hold
	// land (and inside which planted-area variables exist).
	OccSpan map[string]Window

	// HasOccupancy marks crops with at least one land-using event;
	// only those get occupancy indicator variables.
	HasOccupancy map[string]bool

	ResourceCapFallback int64
}

// NewContext prepares an empty model for the plan: windows are
// computed, no variables or rows exist yet.
func NewContext(p *plan.Plan) *Context {
	c := &Context{
		Plan:                p,
		Model:               solve.NewModel(),
		Vars:                newRegistry(),
		EventWindow:         make(map[string]Window, len(p.Events)),
		OccSpan:             make(map[string]Window, len(p.Crops)),
		HasOccupancy:        make(map[string]bool, len(p.Crops)),
		ResourceCapFallback: DefaultResourceCap,
	}

	T := p.Horizon.NumDays
	for i := range p.Events {
		c.EventWindow[p.Events[i].ID] = eventWindow(&p.Events[i], T)
	}
	for i := range p.Crops {
		id := p.Crops[i].ID
		using := p.LandUsingEvents(id)
		if len(using) == 0 {
			// No land-using events: area variables span the whole
			// horizon, no occupancy machinery.
			c.OccSpan[id] = Window{1, T}
			continue
		}
		c.HasOccupancy[id] = true
		span := Window{T + 1, 0}
		for _, e := range using {
			w := c.EventWindow[e.ID]
			if w.Empty() {
				continue
			}
			if w.Lo < span.Lo {
				span.Lo = w.Lo
			}
			if w.Hi > span.Hi {
				span.Hi = w.Hi
			}
		}
		if span.Empty() {
			span = Window{1, T}
		}
		c.OccSpan[id] = span
	}
	return c
}

// eventWindow derives the firing window from the event's start and end
// conditions, clamped to the horizon. Empty conditions default to the
// horizon edges.
func eventWindow(e *plan.Event, numDays int) Window {
	lo, hi := 1, numDays
	if len(e.StartCond) > 0 {
		lo = e.StartCond[0]
		for _, d := range e.StartCond[1:] {
			if d < lo {
				lo = d
			}
		}
	}
	if len(e.EndCond) > 0 {
		hi = e.EndCond[0]
		for _, d := range e.EndCond[1:] {
			if d > hi {
				hi = d
			}
		}
	}
	if lo < 1 {
		lo = 1
	}
	if hi > numDays {
		hi = numDays
	}
	return Window{lo, hi}
}

// Build constructs a stage model: a fresh context with every
// constraint applied.
func Build(p *plan.Plan, cons []Constraint) (*Context, error) {
	c := NewContext(p)
	for _, con := range cons {
		if err := con.Apply(c); err != nil {
			return nil, fmt.Errorf("constraint %s: %w", con.Name(), err)
		}
	}
	return c, nil
}

// Values is a solved assignment projected back onto registry keys, so
// later stages and the extraction step never touch raw Var indices.
type Values struct {
	X    map[LandCropDay]int64
	R    map[EventDay]int64
	H    map[WorkerEventDay]int64
	A    map[WorkerEventDay]int64
	U    map[ResourceEventDay]int64
	Occ  map[CropDay]int64
	OccL map[LandCropDay]int64
	Use  map[string]int64
	Z    map[LandCrop]int64
}

// Extract projects a solver assignment back onto the registry keys.
func (c *Context) Extract(vals []int64) *Values {
	out := &Values{
		X:    make(map[LandCropDay]int64, len(c.Vars.X)),
		R:    make(map[EventDay]int64, len(c.Vars.R)),
		H:    make(map[WorkerEventDay]int64, len(c.Vars.H)),
		A:    make(map[WorkerEventDay]int64, len(c.Vars.A)),
		U:    make(map[ResourceEventDay]int64, len(c.Vars.U)),
		Occ:  make(map[CropDay]int64, len(c.Vars.Occ)),
		OccL: make(map[LandCropDay]int64, len(c.Vars.OccL)),
		Use:  make(map[string]int64, len(c.Vars.Use)),
		Z:    make(map[LandCrop]int64, len(c.Vars.Z)),
	}
	for k, v := range c.Vars.X {
		out.X[k] = vals[v]
	}
	for k, v := range c.Vars.R {
		out.R[k] = vals[v]
	}
	for k, v := range c.Vars.H {
		out.H[k] = vals[v]
	}
	for k, v := range c.Vars.A {
		out.A[k] = vals[v]
	}
	for k, v := range c.Vars.U {
		out.U[k] = vals[v]
	}
	for k, v := range c.Vars.Occ {
		out.Occ[k] = vals[v]
	}
	for k, v := range c.Vars.OccL {
		out.OccL[k] = vals[v]
	}
	for k, v := range c.Vars.Use {
		out.Use[k] = vals[v]
	}
	for k, v := range c.Vars.Z {
		out.Z[k] = vals[v]
	}
	return out
}

// HintsFrom builds solver hints for this stage's variables from a
// previous stage's solution, matching by registry key. Keys absent
// from the previous solution are simply unhinted.
func (c *Context) HintsFrom(prev *Values) map[solve.Var]int64 {
	if prev == nil {
		return nil
	}
	hints := make(map[solve.Var]int64, c.Vars.Count())
	for k, v := range c.Vars.X {
		if val, ok := prev.X[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.R {
		if val, ok := prev.R[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.H {
		if val, ok := prev.H[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.A {
		if val, ok := prev.A[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.U {
		if val, ok := prev.U[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.Occ {
		if val, ok := prev.Occ[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.OccL {
		if val, ok := prev.OccL[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.Use {
		if val, ok := prev.Use[k]; ok {
			hints[v] = val
		}
	}
	for k, v := range c.Vars.Z {
		if val, ok := prev.Z[k]; ok {
			hints[v] = val
		}
	}
	return hints
}
