package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Labor balances event work against planted area and enforces the
// hour-capacity layers. For an event with labor demand L hours per
// area unit "a", the exact integer form of
//
//	Σ hours = L · planted area
//
// is q·Σ_{w,t} h[w,e,t] = p·Σ_l x̄[l,crop], with p/q the reduced
// rational for L·TimeScale/AreaScale at millis precision. On top of
// the balance: hours flow only through assigned workers on firing
// days, per-event daily caps, and per-worker daily capacity.
type Labor struct {
	Base
}

func (Labor) Name() string { return "labor" }

// laborRatio returns the reduced p/q with q·units(h) = p·units(area)
// for L hours per "a".
func laborRatio(laborPerArea float64) (p, q int64) {
	millis := int64(laborPerArea*1000 + 0.5)
	p = millis * plan.TimeScale
	q = 1000 * plan.AreaScale
	g := gcd(p, q)
	return p / g, q / g
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func (u *Labor) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan

	for ei := range p.Events {
		ev := &p.Events[ei]
		if !ev.HasLabor() {
			continue
		}
		w := c.EventWindow[ev.ID]
		workers := c.EligibleWorkers(ev)
		ratP, ratQ := laborRatio(*ev.LaborTotalPerArea)

		// q·Σh − p·Σx̄ = 0.
		var balance solve.LinExpr
		for _, wk := range workers {
			for t := w.Lo; t <= w.Hi; t++ {
				if h, ok := c.H(wk, ev.ID, t); ok {
					balance.AddTerm(h, ratQ)
				}
			}
		}
		for li := range p.Lands {
			balance.AddTerm(c.XBase(&p.Lands[li], ev.CropID), -ratP)
		}
		c.Model.AddEq(balance, 0)

		for t := w.Lo; t <= w.Hi; t++ {
			r, rok := c.R(ev.ID, t)

			var daily solve.LinExpr
			for _, wk := range workers {
				h, ok := c.H(wk, ev.ID, t)
				if !ok {
					continue
				}
				daily.AddTerm(h, 1)

				a, _ := c.A(wk, ev.ID, t)

				// h ≤ cap·a, h ≥ a: hours imply assignment and back.
				var up solve.LinExpr
				up.AddTerm(h, 1)
				up.AddTerm(a, -wk.CapacityUnits())
				c.Model.AddLe(up, 0)
				var down solve.LinExpr
				down.AddTerm(h, 1)
				down.AddTerm(a, -1)
				c.Model.AddGe(down, 0)

				// Assignment only on firing days.
				if rok {
					var fire solve.LinExpr
					fire.AddTerm(a, 1)
					fire.AddTerm(r, -1)
					c.Model.AddLe(fire, 0)
				} else {
					c.Model.FixVar(a, 0)
				}
			}

			if ev.LaborDailyCap != nil && !daily.Empty() {
				c.Model.AddLe(daily, plan.HourUnits(*ev.LaborDailyCap))
			}
		}
	}

	// Per-worker daily capacity across all events.
	for wi := range p.Workers {
		wk := &p.Workers[wi]
		for t := 1; t <= p.Horizon.NumDays; t++ {
			if wk.Blocked(t) {
				continue
			}
			var day solve.LinExpr
			for ei := range p.Events {
				ev := &p.Events[ei]
				key := model.WorkerEventDay{Worker: wk.ID, Event: ev.ID, Day: t}
				if h, ok := c.Vars.H[key]; ok {
					day.AddTerm(h, 1)
				}
			}
			if !day.Empty() {
				c.Model.AddLe(day, wk.CapacityUnits())
			}
		}
	}
	return nil
}
