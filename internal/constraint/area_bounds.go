package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// AreaBounds applies per-crop daily planted-area bounds. The maximum
// holds on every day unconditionally. The minimum holds on days the
// crop is in occupation, and a positive minimum forces the crop to
// occupy at least one day: a plan that cannot fit the minimum is
// infeasible rather than silently crop-free.
type AreaBounds struct {
	Base
}

func (AreaBounds) Name() string { return "area_bounds" }

func (u *AreaBounds) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for _, b := range p.Bounds {
		span := c.OccSpan[b.CropID]
		var minUnits, maxUnits int64
		hasMin := b.MinArea != nil && *b.MinArea > 0
		if hasMin {
			minUnits = plan.AreaUnits(*b.MinArea)
		}
		hasMax := b.MaxArea != nil
		if hasMax {
			maxUnits = plan.AreaUnits(*b.MaxArea)
		}
		if !hasMin && !hasMax {
			continue
		}

		for t := span.Lo; t <= span.Hi; t++ {
			var total solve.LinExpr
			for li := range p.Lands {
				if x, ok := c.X(&p.Lands[li], b.CropID, t); ok {
					total.AddTerm(x, 1)
				}
			}
			if total.Empty() {
				continue
			}
			if hasMax {
				c.Model.AddLe(total, maxUnits)
			}
			if hasMin {
				// Σx ≥ min·gate, gated on the day actually being in
				// the crop's occupation.
				gated := total
				if occ, ok := c.Occ(b.CropID, t); ok {
					gated.AddTerm(occ, -minUnits)
					c.Model.AddGe(gated, 0)
				} else if !c.HasOccupancy[b.CropID] {
					use := c.Use(b.CropID)
					gated.AddTerm(use, -minUnits)
					c.Model.AddGe(gated, 0)
				}
			}
		}

		if hasMin {
			// The minimum is a real demand: the crop must be grown.
			if c.HasOccupancy[b.CropID] {
				var days solve.LinExpr
				for t := span.Lo; t <= span.Hi; t++ {
					if occ, ok := c.Occ(b.CropID, t); ok {
						days.AddTerm(occ, 1)
					}
				}
				if !days.Empty() {
					c.Model.AddGe(days, 1)
				}
			}
			c.Model.FixVar(c.Use(b.CropID), 1)
		}
	}
	return nil
}
