package objective

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Labor minimizes total worked hours across all events and workers.
type Labor struct{}

func (Labor) Name() string { return "labor" }

// Scale converts time units back to hours.
func (Labor) Scale() float64 { return plan.TimeScale }

func (Labor) Build(c *model.Context) (solve.LinExpr, solve.Sense, error) {
	p := c.Plan
	var obj solve.LinExpr
	for ei := range p.Events {
		ev := &p.Events[ei]
		if !ev.HasLabor() {
			continue
		}
		w := c.EventWindow[ev.ID]
		for _, wk := range c.EligibleWorkers(ev) {
			for t := w.Lo; t <= w.Hi; t++ {
				if h, ok := c.H(wk, ev.ID, t); ok {
					obj.AddTerm(h, 1)
				}
			}
		}
	}
	return obj, solve.Minimize, nil
}
