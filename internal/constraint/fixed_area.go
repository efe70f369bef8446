package constraint

import (
	"fmt"

	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// FixedAreas pins committed allocations: a fixed (land, crop, area)
// triple forces the pair's envelope to at least that area, forces the
// crop into play, and, for crops with occupation machinery, forces the
// land to actually be held at some point.
type FixedAreas struct {
	Base
}

func (FixedAreas) Name() string { return "fixed_area" }

func (u *FixedAreas) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for _, f := range p.Fixed {
		land := p.LandByID(f.LandID)
		if land == nil {
			return fmt.Errorf("fixed area references unknown land %q", f.LandID)
		}
		units := plan.AreaUnits(f.Area)
		if units <= 0 {
			continue
		}

		var floor solve.LinExpr
		floor.AddTerm(c.XBase(land, f.CropID), 1)
		c.Model.AddGe(floor, units)

		c.Model.FixVar(c.Use(f.CropID), 1)
		c.Model.FixVar(c.Z(land.ID, f.CropID), 1)

		if c.HasOccupancy[f.CropID] {
			span := c.OccSpan[f.CropID]
			var held solve.LinExpr
			for t := span.Lo; t <= span.Hi; t++ {
				if occl, ok := c.OccL(land, f.CropID, t); ok {
					held.AddTerm(occl, 1)
				}
			}
			if held.Empty() {
				return fmt.Errorf("fixed area for crop %q on land %q has no admissible day", f.CropID, f.LandID)
			}
			c.Model.AddGe(held, 1)
		}
	}
	return nil
}
