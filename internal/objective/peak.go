package objective

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Peak minimizes the busiest day: an auxiliary variable bounds the
// total worked hours of every day from above and is itself minimized.
type Peak struct{}

func (Peak) Name() string { return "peak" }

// Scale converts time units back to hours.
func (Peak) Scale() float64 { return plan.TimeScale }

func (Peak) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan

	var capSum int64
	for wi := range p.Workers {
		capSum += p.Workers[wi].CapacityUnits()
	}
	peak := c.Model.NewVar(0, capSum, "peak")

	for t := 1; t <= p.Horizon.NumDays; t++ {
		var day solve.LinExpr
		for ei := range p.Events {
			ev := &p.Events[ei]
			if !ev.HasLabor() {
				continue
			}
			for _, wk := range c.EligibleWorkers(ev) {
				if h, ok := c.H(wk, ev.ID, t); ok {
					day.AddTerm(h, 1)
				}
			}
		}
		if day.Empty() {
			continue
		}
		day.AddTerm(peak, -1)
		c.Model.AddLe(day, 0)
	}

	var obj solve.LinExpr
	obj.AddTerm(peak, 1)
	return obj, solve.Minimize, nil
}
