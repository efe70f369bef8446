package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// LinkAreaUse ties the indicator layers to the area layer:
//
//	x[l,c,t]   ≤ area(l)·z[l,c]          (pair indicator sees any planting)
//	x̄[l,c]     ≤ area(l)·z[l,c]          (no envelope without planting)
//	z[l,c]     ≤ Σ_t x[l,c,t]            (no phantom pairs)
//	z[l,c]     ≤ use[c]                  (crop-used indicator dominates)
//	use[c]     ≤ Σ_l z[l,c]              (used crops plant somewhere)
type LinkAreaUse struct {
	Base
}

func (LinkAreaUse) Name() string { return "link_area_use" }

func (u *LinkAreaUse) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ci := range p.Crops {
		cropID := p.Crops[ci].ID
		use := c.Use(cropID)

		var pairSum solve.LinExpr
		for li := range p.Lands {
			land := &p.Lands[li]
			z := c.Z(land.ID, cropID)
			pairSum.AddTerm(z, 1)

			// x̄ ≤ area·z: the envelope counts only for pairs that plant.
			var env solve.LinExpr
			env.AddTerm(c.XBase(land, cropID), 1)
			env.AddTerm(z, -land.AreaUnits())
			c.Model.AddLe(env, 0)

			var daySum solve.LinExpr
			for t := 1; t <= p.Horizon.NumDays; t++ {
				x, ok := c.X(land, cropID, t)
				if !ok {
					continue
				}
				daySum.AddTerm(x, 1)

				var e solve.LinExpr
				e.AddTerm(x, 1)
				e.AddTerm(z, -land.AreaUnits())
				c.Model.AddLe(e, 0)
			}

			// z ≤ Σ_t x: a pair indicator without planting is forbidden.
			var gate solve.LinExpr
			gate.AddTerm(z, 1)
			for i, v := range daySum.Vars {
				gate.AddTerm(v, -daySum.Coefs[i])
			}
			c.Model.AddLe(gate, 0)

			var dom solve.LinExpr
			dom.AddTerm(z, 1)
			dom.AddTerm(use, -1)
			c.Model.AddLe(dom, 0)
		}

		// use ≤ Σ_l z.
		var gate solve.LinExpr
		gate.AddTerm(use, 1)
		for i, v := range pairSum.Vars {
			gate.AddTerm(v, -pairSum.Coefs[i])
		}
		c.Model.AddLe(gate, 0)
	}
	return nil
}
