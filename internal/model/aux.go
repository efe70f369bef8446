package model

import (
	"fmt"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Auxiliary variables for the occupancy derivation. These follow the
// same lazy-creation discipline as the primary families but carry no
// window gating: the occupancy constraint decides where they exist.

// Any returns the "some land-using event of crop fires on day" indicator.
func (c *Context) Any(cropID string, t int) solve.Var {
	key := CropDay{cropID, t}
	if v, ok := c.Vars.Any[key]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("any[%s,%d]", cropID, t))
	c.Vars.Any[key] = v
	return v
}

// Prefix returns the "a land-using event fired on or before day" indicator.
func (c *Context) Prefix(cropID string, t int) solve.Var {
	key := CropDay{cropID, t}
	if v, ok := c.Vars.Prefix[key]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("pre[%s,%d]", cropID, t))
	c.Vars.Prefix[key] = v
	return v
}

// Suffix returns the "a land-using event fires on or after day" indicator.
func (c *Context) Suffix(cropID string, t int) solve.Var {
	key := CropDay{cropID, t}
	if v, ok := c.Vars.Suffix[key]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("suf[%s,%d]", cropID, t))
	c.Vars.Suffix[key] = v
	return v
}

// OccStart returns the "land starts being occupied by crop on day"
// indicator used to keep per-land occupation contiguous.
func (c *Context) OccStart(landID, cropID string, t int) solve.Var {
	key := LandCropDay{landID, cropID, t}
	if v, ok := c.Vars.OccStart[key]; ok {
		return v
	}
	v := c.Model.NewBool(fmt.Sprintf("ostart[%s,%s,%d]", landID, cropID, t))
	c.Vars.OccStart[key] = v
	return v
}

// EligibleWorkers returns the workers allowed to serve the event: all
// workers when the event names no required roles, otherwise those
// carrying at least one of them.
func (c *Context) EligibleWorkers(e *plan.Event) []*plan.Worker {
	var out []*plan.Worker
	for i := range c.Plan.Workers {
		w := &c.Plan.Workers[i]
		if len(e.RequiredRoles) == 0 || w.HasAnyRole(e.RequiredRoles) {
			out = append(out, w)
		}
	}
	return out
}
