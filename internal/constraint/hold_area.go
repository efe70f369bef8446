package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// HoldArea ties planted area to occupation: while a land is held by a
// crop the planted area equals the pair's envelope x̄, and outside the
// held run it is zero.
//
//	x[l,c,t] ≤ x̄[l,c]
//	x[l,c,t] ≤ area(l)·occl[l,c,t]
//	x[l,c,t] ≥ x̄[l,c] − area(l)·(1−occl[l,c,t])
//
// Crops without land-using events have no occupation machinery; their
// planted area is the envelope on every unblocked day.
type HoldArea struct {
	Base
}

func (HoldArea) Name() string { return "hold_area" }

func (u *HoldArea) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ci := range p.Crops {
		cropID := p.Crops[ci].ID
		span := c.OccSpan[cropID]
		for li := range p.Lands {
			land := &p.Lands[li]
			xbar := c.XBase(land, cropID)
			area := land.AreaUnits()

			for t := span.Lo; t <= span.Hi; t++ {
				x, ok := c.X(land, cropID, t)
				if !ok {
					continue
				}

				if !c.HasOccupancy[cropID] {
					var eq solve.LinExpr
					eq.AddTerm(x, 1)
					eq.AddTerm(xbar, -1)
					c.Model.AddEq(eq, 0)
					continue
				}

				occl, ok := c.OccL(land, cropID, t)
				if !ok {
					continue
				}

				var cap solve.LinExpr
				cap.AddTerm(x, 1)
				cap.AddTerm(xbar, -1)
				c.Model.AddLe(cap, 0)

				var gate solve.LinExpr
				gate.AddTerm(x, 1)
				gate.AddTerm(occl, -area)
				c.Model.AddLe(gate, 0)

				// x ≥ x̄ − area·(1−occl)
				var hold solve.LinExpr
				hold.AddTerm(x, 1)
				hold.AddTerm(xbar, -1)
				hold.AddTerm(occl, -area)
				c.Model.AddGe(hold, -area)
			}
		}
	}
	return nil
}
