package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// Resources governs pooled assets: a firing of an event that names a
// required resource draws at least one unit of it that day, usage
// flows only on firing days, and each resource's daily total stays
// within its capacity.
type Resources struct {
	Base
}

func (Resources) Name() string { return "resources" }

func (u *Resources) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ei := range p.Events {
		ev := &p.Events[ei]
		if len(ev.RequiredResources) == 0 {
			continue
		}
		w := c.EventWindow[ev.ID]
		for _, resID := range ev.RequiredResources {
			res := p.ResourceByID(resID)
			if res == nil {
				continue
			}
			cap := res.CapacityUnits(c.ResourceCapFallback)
			for t := w.Lo; t <= w.Hi; t++ {
				r, rok := c.R(ev.ID, t)
				usage, ok := c.U(res, ev.ID, t)
				if !ok {
					// Resource blocked that day: the event cannot fire.
					if rok {
						c.Model.FixVar(r, 0)
					}
					continue
				}
				if !rok {
					c.Model.FixVar(usage, 0)
					continue
				}

				var draw solve.LinExpr
				draw.AddTerm(usage, 1)
				draw.AddTerm(r, -1)
				c.Model.AddGe(draw, 0)

				var gate solve.LinExpr
				gate.AddTerm(usage, 1)
				gate.AddTerm(r, -cap)
				c.Model.AddLe(gate, 0)
			}
		}
	}

	// Daily capacity per resource across events.
	for ri := range p.Resources {
		res := &p.Resources[ri]
		cap := res.CapacityUnits(c.ResourceCapFallback)
		for t := 1; t <= p.Horizon.NumDays; t++ {
			if res.Blocked(t) {
				continue
			}
			var day solve.LinExpr
			for ei := range p.Events {
				key := model.ResourceEventDay{Resource: res.ID, Event: p.Events[ei].ID, Day: t}
				if usage, ok := c.Vars.U[key]; ok {
					day.AddTerm(usage, 1)
				}
			}
			if !day.Empty() {
				c.Model.AddLe(day, cap)
			}
		}
	}
	return nil
}
