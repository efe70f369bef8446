package objective

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Idle minimizes idle capacity: the sum over unblocked land-days of
// the area left unplanted. Encoded as the constant total capacity
// minus the planted sum, so the solver still sees a pure minimize.
type Idle struct{}

func (Idle) Name() string { return "idle" }

// Scale converts area units back to "a"·days.
func (Idle) Scale() float64 { return plan.AreaScale }

func (Idle) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan
	var obj solve.LinExpr
	for li := range p.Lands {
		land := &p.Lands[li]
		for t := 1; t <= p.Horizon.NumDays; t++ {
			if land.Blocked(t) {
				continue
			}
			obj.Const += land.AreaUnits()
			for ci := range p.Crops {
				if x, ok := c.X(land, p.Crops[ci].ID, t); ok {
					obj.AddTerm(x, -1)
				}
			}
		}
	}
	return obj, solve.Minimize, nil
}
