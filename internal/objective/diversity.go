package objective

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// Diversity maximizes the number of distinct crops grown.
type Diversity struct{}

func (Diversity) Name() string { return "diversity" }

// Scale is 1: the optimum is already a crop count.
func (Diversity) Scale() float64 { return 1 }

func (Diversity) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan
	var obj solve.LinExpr
	for ci := range p.Crops {
		obj.AddTerm(c.Use(p.Crops[ci].ID), 1)
	}
	return obj, solve.Maximize, nil
}
