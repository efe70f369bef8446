package objective

import (
	"math"

	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Profit maximizes revenue: Σ price(crop) · envelope area over every
// (land, crop) pair. Unpriced crops contribute nothing.
type Profit struct{}

func (Profit) Name() string { return "profit" }

// Scale converts the integer optimum back to currency units: prices
// are in 1/ProfitScale currency per "a" and areas in 1/AreaScale "a".
func (Profit) Scale() float64 { return ProfitScale * plan.AreaScale }

func (Profit) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan
	var obj solve.LinExpr
	for ci := range p.Crops {
		crop := &p.Crops[ci]
		if crop.PricePerArea == nil {
			continue
		}
		coef := int64(math.Round(*crop.PricePerArea * ProfitScale))
		if coef == 0 {
			continue
		}
		for li := range p.Lands {
			obj.AddTerm(c.XBase(&p.Lands[li], crop.ID), coef)
		}
	}
	return obj, solve.Maximize, nil
}
