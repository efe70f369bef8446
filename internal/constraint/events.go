package constraint

import (
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// Events governs firing windows, repeat frequency and precedence lags:
//
//	r[e,t] ≤ use(crop)                   firings only while the crop is in play
//	Σ_{τ ∈ [t,t+F−1]} r[e,τ] ≤ 1         no two firings within F days
//	r[e,t] ≤ Σ_{τ ∈ lag band} r[p,τ]    firings honor the predecessor lag
type Events struct {
	Base
}

func (Events) Name() string { return "events" }

func (u *Events) Apply(c *model.Context) error {
	if u.Disabled {
		return nil
	}
	p := c.Plan
	for ei := range p.Events {
		ev := &p.Events[ei]
		w := c.EventWindow[ev.ID]
		use := c.Use(ev.CropID)

		// Firing only while the crop is in play.
		for t := w.Lo; t <= w.Hi; t++ {
			r, ok := c.R(ev.ID, t)
			if !ok {
				continue
			}
			var e solve.LinExpr
			e.AddTerm(r, 1)
			e.AddTerm(use, -1)
			c.Model.AddLe(e, 0)
		}

		if F := ev.FrequencyDays; F > 1 {
			// No two firings within any F-day window. Trailing partial
			// windows are subsets of an earlier full window; a window
			// shorter than F collapses to one row over the whole window.
			last := w.Hi - F + 1
			if last < w.Lo {
				last = w.Lo
			}
			for t := w.Lo; t <= last; t++ {
				var win solve.LinExpr
				for tau := t; tau <= t+F-1 && tau <= w.Hi; tau++ {
					if r, ok := c.R(ev.ID, tau); ok {
						win.AddTerm(r, 1)
					}
				}
				if !win.Empty() {
					c.Model.AddLe(win, 1)
				}
			}
		}

		if ev.PrecedingEventID != "" {
			u.applyLag(c, ev)
		}
	}
	return nil
}

// applyLag restricts each firing of ev to the lag band after its
// predecessor: a firing at t needs a predecessor firing at some
// τ ∈ [t−lagMax, t−lagMin] and none more recent, so the lag is
// measured from the most recent predecessor firing.
func (u *Events) applyLag(c *model.Context, ev *plan.Event) {
	p := c.Plan
	w := c.EventWindow[ev.ID]

	lagMin := 0
	if ev.LagMinDays != nil {
		lagMin = *ev.LagMinDays
	}
	lagMax := p.Horizon.NumDays
	if ev.LagMaxDays != nil {
		lagMax = *ev.LagMaxDays
	}

	for t := w.Lo; t <= w.Hi; t++ {
		r, ok := c.R(ev.ID, t)
		if !ok {
			continue
		}
		var band solve.LinExpr
		band.AddTerm(r, 1)
		for tau := t - lagMax; tau <= t-lagMin; tau++ {
			if rp, ok := c.R(ev.PrecedingEventID, tau); ok {
				band.AddTerm(rp, -1)
			}
		}
		c.Model.AddLe(band, 0)

		for tau := t - lagMin + 1; tau <= t; tau++ {
			if rp, ok := c.R(ev.PrecedingEventID, tau); ok {
				var pair solve.LinExpr
				pair.AddTerm(r, 1)
				pair.AddTerm(rp, 1)
				c.Model.AddLe(pair, 1)
			}
		}
	}
}
