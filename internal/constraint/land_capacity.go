package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// LandCapacity caps the planted area on each land at its physical area
// on every day: Σ_crop x[l,c,t] ≤ area(l).
type LandCapacity struct {
	Base
}

func (LandCapacity) Name() string { return "land_capacity" }

func (u *LandCapacity) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for li := range p.Lands {
		land := &p.Lands[li]
		cap := land.AreaUnits()
		for t := 1; t <= p.Horizon.NumDays; t++ {
			if land.Blocked(t) {
				continue
			}
			var sum solve.LinExpr
			for ci := range p.Crops {
				if x, ok := c.X(land, p.Crops[ci].ID, t); ok {
					sum.AddTerm(x, 1)
				}
			}
			if sum.Empty() {
				continue
			}
			c.Model.AddLe(sum, cap)
		}
	}
	return nil
}
