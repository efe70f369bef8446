package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/solve"
)

// Roles enforces crew composition on firing days: every required role
// must be covered by at least one assigned carrier, and events with
// people_required n need n workers assigned overall. A required role
// carried by no worker forces the event's firings to zero.
type Roles struct {
	Base
}

func (Roles) Name() string { return "roles" }

func (u *Roles) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ei := range p.Events {
		ev := &p.Events[ei]
		if len(ev.RequiredRoles) == 0 && ev.PeopleRequired <= 0 {
			continue
		}
		w := c.EventWindow[ev.ID]
		workers := c.EligibleWorkers(ev)

		for t := w.Lo; t <= w.Hi; t++ {
			r, ok := c.R(ev.ID, t)
			if !ok {
				continue
			}

			var crew solve.LinExpr
			for _, wk := range workers {
				a, ok := c.A(wk, ev.ID, t)
				if !ok {
					continue
				}
				crew.AddTerm(a, 1)

				// Assignment only on firing days; the labor unit adds
				// the same tie for labor events, this covers crew-only
				// ones.
				if !ev.HasLabor() {
					var fire solve.LinExpr
					fire.AddTerm(a, 1)
					fire.AddTerm(r, -1)
					c.Model.AddLe(fire, 0)
				}
			}

			// Per-role coverage: a firing needs an assigned carrier of
			// each required role. With no carrier the row degenerates to
			// r ≤ 0, so such events can never fire.
			for _, role := range ev.RequiredRoles {
				var cover solve.LinExpr
				for _, wk := range workers {
					if !wk.HasRole(role) {
						continue
					}
					if a, ok := c.A(wk, ev.ID, t); ok {
						cover.AddTerm(a, 1)
					}
				}
				cover.AddTerm(r, -1)
				c.Model.AddGe(cover, 0)
			}

			if ev.PeopleRequired > 0 {
				crew.AddTerm(r, -int64(ev.PeopleRequired))
				c.Model.AddGe(crew, 0)
			}
		}
	}
	return nil
}
