// Package model owns the decision-variable registry, the precomputed
// event/crop day windows that gate sparse variable creation, and the
// per-stage build/solve driver.
package model

import (
	"fmt"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Tuple keys. The registry is a flat mapping: no pointer graphs, no
// back-references; everything is looked up by key.

type LandCrop struct {
	Land string
	Crop string
}

type LandCropDay struct {
	Land string
	Crop string
	Day  int
}

type EventDay struct {
	Event string
	Day   int
}

type WorkerEventDay struct {
	Worker string
	Event  string
	Day    int
}

type ResourceEventDay struct {
	Resource string
	Event    string
	Day      int
}

type CropDay struct {
	Crop string
	Day  int
}

// Registry holds every decision variable of one stage's model, keyed
// by tuple. Variables live exactly as long as the stage's model.
type Registry struct {
	X     map[LandCropDay]solve.Var // planted units of crop on land at day
	XBase map[LandCrop]solve.Var    // base envelope: units held while occupying
	Z     map[LandCrop]solve.Var    // land ever plants crop
	R     map[EventDay]solve.Var    // event fires on day
	H     map[WorkerEventDay]solve.Var
	A     map[WorkerEventDay]solve.Var
	U     map[ResourceEventDay]solve.Var
	Occ   map[CropDay]solve.Var
	OccL  map[LandCropDay]solve.Var
	Use   map[string]solve.Var

	// Auxiliaries owned by the occupancy derivation.
	Any      map[CropDay]solve.Var
	Prefix   map[CropDay]solve.Var
	Suffix   map[CropDay]solve.Var
	OccStart map[LandCropDay]solve.Var
}

func newRegistry() *Registry {
	return &Registry{
		X:        make(map[LandCropDay]solve.Var),
		XBase:    make(map[LandCrop]solve.Var),
		Z:        make(map[LandCrop]solve.Var),
		R:        make(map[EventDay]solve.Var),
		H:        make(map[WorkerEventDay]solve.Var),
		A:        make(map[WorkerEventDay]solve.Var),
		U:        make(map[ResourceEventDay]solve.Var),
		Occ:      make(map[CropDay]solve.Var),
		OccL:     make(map[LandCropDay]solve.Var),
		Use:      make(map[string]solve.Var),
		Any:      make(map[CropDay]solve.Var),
		Prefix:   make(map[CropDay]solve.Var),
		Suffix:   make(map[CropDay]solve.Var),
		OccStart: make(map[LandCropDay]solve.Var),
	}
}

// Count returns the total number of registered variables.
func (r *Registry) Count() int {
	return len(r.X) + len(r.XBase) + len(r.Z) + len(r.R) + len(r.H) + len(r.A) +
		len(r.U) + len(r.Occ) + len(r.OccL) + len(r.Use) +
		len(r.Any) + len(r.Prefix) + len(r.Suffix) + len(r.OccStart)
}

// Lazy accessors. Creation is on demand but restricted by the
// precomputed windows; constraints request variables through these and
// never touch the underlying model directly.

// X returns (creating if needed) the planted-units variable for
// (land, crop, day). Returns false when the day is outside the crop's
// occupancy span or blocked on the land.
func (c *Context) X(land *plan.Land, cropID string, t int) (solve.Var, bool) {
	span, ok := c.OccSpan[cropID]
	if !ok || t < span.Lo || t > span.Hi || land.Blocked(t) {
		return 0, false
	}
	key := LandCropDay{land.ID, cropID, t}
	if v, ok := c.Vars.X[key]; ok {
		return v, true
	}
	v := c.Model.NewVar(0, land.AreaUnits(), fmt.Sprintf("x[%s,%s,%d]", land.ID, cropID, t))
	c.Vars.X[key] = v
	return v, true
}

// XBase returns the base-envelope variable for (land, crop).
func (c *Context) XBase(land *plan.Land, cropID string) solve.Var {
	key := LandCrop{land.ID, cropID}
	if v, ok := c.Vars.XBase[key]; ok {
		return v
	}
	v := c.Model.NewVar(0, land.AreaUnits(), fmt.Sprintf("xbar[%s,%s]", land.ID, cropID))
	c.Vars.XBase[key] = v
	return v
}

// Z returns the land-ever-plants-crop indicator.
func (c *Context) Z(landID, cropID string) solve.Var {
	key := LandCrop{landID, cropID}
	if v, ok := c.Vars.Z[key]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("z[%s,%s]", landID, cropID))
	c.Vars.Z[key] = v
	return v
}

// R returns the event-fires indicator for (event, day); false outside
// the event's window.
func (c *Context) R(eventID string, t int) (solve.Var, bool) {
	w, ok := c.EventWindow[eventID]
	if !ok || t < w.Lo || t > w.Hi {
		return 0, false
	}
	key := EventDay{eventID, t}
	if v, ok := c.Vars.R[key]; ok {
		return v, true
	}
	v := c.Model.NewBool(fmt.Sprintf("r[%s,%d]", eventID, t))
	c.Vars.R[key] = v
	return v, true
}

// H returns the scaled-hours variable for (worker, event, day); false
// outside the event window or on the worker's blocked days.
func (c *Context) H(w *plan.Worker, eventID string, t int) (solve.Var, bool) {
	win, ok := c.EventWindow[eventID]
	if !ok || t < win.Lo || t > win.Hi || w.Blocked(t) {
		return 0, false
	}
	key := WorkerEventDay{w.ID, eventID, t}
	if v, ok := c.Vars.H[key]; ok {
		return v, true
	}
	v := c.Model.NewVar(0, w.CapacityUnits(), fmt.Sprintf("h[%s,%s,%d]", w.ID, eventID, t))
	c.Vars.H[key] = v
	return v, true
}

// A returns the worker-assigned indicator for (worker, event, day).
func (c *Context) A(w *plan.Worker, eventID string, t int) (solve.Var, bool) {
	win, ok := c.EventWindow[eventID]
	if !ok || t < win.Lo || t > win.Hi || w.Blocked(t) {
		return 0, false
	}
	key := WorkerEventDay{w.ID, eventID, t}
	if v, ok := c.Vars.A[key]; ok {
		return v, true
	}
	v := c.Model.NewBool(fmt.Sprintf("a[%s,%s,%d]", w.ID, eventID, t))
	c.Vars.A[key] = v
	return v, true
}

// U returns the scaled-hours variable for (resource, event, day).
func (c *Context) U(res *plan.Resource, eventID string, t int) (solve.Var, bool) {
	win, ok := c.EventWindow[eventID]
	if !ok || t < win.Lo || t > win.Hi || res.Blocked(t) {
		return 0, false
	}
	key := ResourceEventDay{res.ID, eventID, t}
	if v, ok := c.Vars.U[key]; ok {
		return v, true
	}
	v := c.Model.NewVar(0, res.CapacityUnits(c.ResourceCapFallback), fmt.Sprintf("u[%s,%s,%d]", res.ID, eventID, t))
	c.Vars.U[key] = v
	return v, true
}

// Occ returns the crop-in-occupation indicator for (crop, day); false
// when the crop has no land-using events or the day is out of span.
func (c *Context) Occ(cropID string, t int) (solve.Var, bool) {
	if !c.HasOccupancy[cropID] {
		return 0, false
	}
	span := c.OccSpan[cropID]
	if t < span.Lo || t > span.Hi {
		return 0, false
	}
	key := CropDay{cropID, t}
	if v, ok := c.Vars.Occ[key]; ok {
		return v, true
	}
	v := c.Model.NewBool(fmt.Sprintf("occ[%s,%d]", cropID, t))
	c.Vars.Occ[key] = v
	return v, true
}

// OccL returns the land-occupied-by-crop indicator; false on blocked
// or out-of-span days.
func (c *Context) OccL(land *plan.Land, cropID string, t int) (solve.Var, bool) {
	if !c.HasOccupancy[cropID] {
		return 0, false
	}
	span := c.OccSpan[cropID]
	if t < span.Lo || t > span.Hi || land.Blocked(t) {
		return 0, false
	}
	key := LandCropDay{land.ID, cropID, t}
	if v, ok := c.Vars.OccL[key]; ok {
		return v, true
	}
	v := c.Model.NewBool(fmt.Sprintf("occl[%s,%s,%d]", land.ID, cropID, t))
	c.Vars.OccL[key] = v
	return v, true
}

// Use returns the crop-is-used indicator.
func (c *Context) Use(cropID string) solve.Var {
	if v, ok := c.Vars.Use[cropID]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("use[%s]", cropID))
	c.Vars.Use[cropID] = v
	return v
}
