package objective

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// Dispersion minimizes fragmentation: the number of (land, crop) pairs
// that ever carry a planting. Fewer pairs means larger contiguous
// allocations.
type Dispersion struct{}

func (Dispersion) Name() string { return "dispersion" }

// Scale is 1: the optimum is already a pair count.
func (Dispersion) Scale() float64 { return 1 }

func (Dispersion) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan
	var obj solve.LinExpr
	for li := range p.Lands {
		for ci := range p.Crops {
			obj.AddTerm(c.Z(p.Lands[li].ID, p.Crops[ci].ID), 1)
		}
	}
	return obj, solve.Minimize, nil
}
