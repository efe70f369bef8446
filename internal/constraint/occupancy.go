package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// Occupancy derives the occupation interval of each crop from its
// land-using event firings. The interval runs from the first such
// firing to the last:
//
//	any[c,t]    = OR of land-using firings on day t
//	prefix[c,t] = OR of any[c,τ], τ ≤ t
//	suffix[c,t] = OR of any[c,τ], τ ≥ t
//	occ[c,t]    = prefix AND suffix
//
// Per land, occl[l,c,t] marks the land as held by the crop; each
// (land, crop) pair gets at most one contiguous run, enforced with
// start indicators.
type Occupancy struct {
	Base
}

func (Occupancy) Name() string { return "occupancy" }

func (u *Occupancy) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ci := range p.Crops {
		cropID := p.Crops[ci].ID
		if !c.HasOccupancy[cropID] {
			continue
		}
		span := c.OccSpan[cropID]
		using := p.LandUsingEvents(cropID)

		for t := span.Lo; t <= span.Hi; t++ {
			any := c.Any(cropID, t)
			var firings solve.LinExpr
			for _, ev := range using {
				r, ok := c.R(ev.ID, t)
				if !ok {
					continue
				}
				firings.AddTerm(r, 1)

				var lower solve.LinExpr
				lower.AddTerm(any, 1)
				lower.AddTerm(r, -1)
				c.Model.AddGe(lower, 0)
			}
			// any ≤ Σ firings (zero when no event can fire that day).
			var upper solve.LinExpr
			upper.AddTerm(any, 1)
			for i, v := range firings.Vars {
				upper.AddTerm(v, -firings.Coefs[i])
			}
			c.Model.AddLe(upper, 0)
		}

		u.chain(c, cropID, span)
		u.perLand(c, cropID, span)
	}
	return nil
}

// chain builds the prefix/suffix OR chains and conjoins them into occ.
func (u *Occupancy) chain(c *model.Context, cropID string, span model.Window) {
	for t := span.Lo; t <= span.Hi; t++ {
		any := c.Any(cropID, t)
		pre := c.Prefix(cropID, t)
		suf := c.Suffix(cropID, t)

		// pre[t] = any[t] OR pre[t−1].
		var ge solve.LinExpr
		ge.AddTerm(pre, 1)
		ge.AddTerm(any, -1)
		c.Model.AddGe(ge, 0)
		var le solve.LinExpr
		le.AddTerm(pre, 1)
		le.AddTerm(any, -1)
		if t > span.Lo {
			prev := c.Prefix(cropID, t-1)
			var mono solve.LinExpr
			mono.AddTerm(pre, 1)
			mono.AddTerm(prev, -1)
			c.Model.AddGe(mono, 0)
			le.AddTerm(prev, -1)
		}
		c.Model.AddLe(le, 0)

		// suf[t] = any[t] OR suf[t+1].
		var sge solve.LinExpr
		sge.AddTerm(suf, 1)
		sge.AddTerm(any, -1)
		c.Model.AddGe(sge, 0)
		var sle solve.LinExpr
		sle.AddTerm(suf, 1)
		sle.AddTerm(any, -1)
		if t < span.Hi {
			next := c.Suffix(cropID, t+1)
			var mono solve.LinExpr
			mono.AddTerm(suf, 1)
			mono.AddTerm(next, -1)
			c.Model.AddGe(mono, 0)
			sle.AddTerm(next, -1)
		}
		c.Model.AddLe(sle, 0)

		// occ = pre AND suf.
		occ, _ := c.Occ(cropID, t)
		var a solve.LinExpr
		a.AddTerm(occ, 1)
		a.AddTerm(pre, -1)
		c.Model.AddLe(a, 0)
		var b solve.LinExpr
		b.AddTerm(occ, 1)
		b.AddTerm(suf, -1)
		c.Model.AddLe(b, 0)
		var both solve.LinExpr
		both.AddTerm(occ, 1)
		both.AddTerm(pre, -1)
		both.AddTerm(suf, -1)
		c.Model.AddGe(both, -1)
	}
}

// perLand links land-level occupation to the crop interval and keeps
// each (land, crop) run contiguous. A blocked day breaks the run: the
// day after it would need a second start, which the budget forbids.
func (u *Occupancy) perLand(c *model.Context, cropID string, span model.Window) {
	p := c.Plan
	for li := range p.Lands {
		land := &p.Lands[li]

		var starts solve.LinExpr
		prevOpen := false
		var prevVar solve.Var
		for t := span.Lo; t <= span.Hi; t++ {
			occl, ok := c.OccL(land, cropID, t)
			if !ok {
				prevOpen = false
				continue
			}

			occ, _ := c.Occ(cropID, t)
			var dom solve.LinExpr
			dom.AddTerm(occl, 1)
			dom.AddTerm(occ, -1)
			c.Model.AddLe(dom, 0)

			start := c.OccStart(land.ID, cropID, t)
			starts.AddTerm(start, 1)
			var rise solve.LinExpr
			rise.AddTerm(start, 1)
			rise.AddTerm(occl, -1)
			if prevOpen {
				rise.AddTerm(prevVar, 1)
			}
			c.Model.AddGe(rise, 0)

			prevOpen = true
			prevVar = occl
		}
		if !starts.Empty() {
			c.Model.AddLe(starts, 1)
		}
	}

	// Crop-level occupancy must be backed by at least one land.
	for t := span.Lo; t <= span.Hi; t++ {
		occ, ok := c.Occ(cropID, t)
		if !ok {
			continue
		}
		var backed solve.LinExpr
		backed.AddTerm(occ, 1)
		for li := range p.Lands {
			if occl, ok := c.OccL(&p.Lands[li], cropID, t); ok {
				backed.AddTerm(occl, -1)
			}
		}
		c.Model.AddLe(backed, 0)
	}
}
