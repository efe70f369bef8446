package planner

import (
	"sort"

	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
)

// extractSolution projects the solver assignment into the wire
// solution map. Day indices flip back to 0-based here.
func extractSolution(p *plan.Plan, ctx *model.Context, vals *model.Values) map[string]any {
	areas := make(map[string]map[string][]float64)
	for li := range p.Lands {
		land := &p.Lands[li]
		byCrop := make(map[string][]float64)
		for ci := range p.Crops {
			cropID := p.Crops[ci].ID
			row := make([]float64, p.Horizon.NumDays)
			nonzero := false
			for t := 1; t <= p.Horizon.NumDays; t++ {
				v := vals.X[model.LandCropDay{Land: land.ID, Crop: cropID, Day: t}]
				if v > 0 {
					row[t-1] = float64(v) / plan.AreaScale
					nonzero = true
				}
			}
			if nonzero {
				byCrop[cropID] = row
			}
		}
		if len(byCrop) > 0 {
			areas[land.ID] = byCrop
		}
	}

	events := extractFirings(p, vals)

	var cropsUsed []string
	for ci := range p.Crops {
		if vals.Use[p.Crops[ci].ID] > 0 {
			cropsUsed = append(cropsUsed, p.Crops[ci].ID)
		}
	}
	sort.Strings(cropsUsed)

	var laborUnits int64
	for _, v := range vals.H {
		laborUnits += v
	}

	return map[string]any{
		"crop_area_by_land_day": areas,
		"events":                events,
		"crops_used":            cropsUsed,
		"total_labor_hours":     float64(laborUnits) / plan.TimeScale,
	}
}

// firing is one event execution with its attributions.
type firing struct {
	Day       int                  `json:"day"`
	EventID   string               `json:"event_id"`
	CropID    string               `json:"crop_id"`
	LandIDs   []string             `json:"land_ids"`
	AreaA     float64              `json:"area_a"`
	Workers   []plan.WorkerUsage   `json:"workers"`
	Resources []plan.ResourceUsage `json:"resources"`
}

// extractFirings lists every event firing in day order, with the
// hours, resource draws and lands attributed to it.
func extractFirings(p *plan.Plan, vals *model.Values) []firing {
	var out []firing
	for ei := range p.Events {
		ev := &p.Events[ei]
		for t := 1; t <= p.Horizon.NumDays; t++ {
			if vals.R[model.EventDay{Event: ev.ID, Day: t}] == 0 {
				continue
			}
			f := firing{
				Day:     t - 1,
				EventID: ev.ID,
				CropID:  ev.CropID,
			}

			var area int64
			for li := range p.Lands {
				land := &p.Lands[li]
				key := model.LandCropDay{Land: land.ID, Crop: ev.CropID, Day: t}
				if x := vals.X[key]; x > 0 {
					f.LandIDs = append(f.LandIDs, land.ID)
					area += x
				}
			}
			f.AreaA = float64(area) / plan.AreaScale

			for wi := range p.Workers {
				wk := &p.Workers[wi]
				key := model.WorkerEventDay{Worker: wk.ID, Event: ev.ID, Day: t}
				if h := vals.H[key]; h > 0 {
					f.Workers = append(f.Workers, plan.WorkerUsage{
						WorkerID: wk.ID,
						Hours:    float64(h) / plan.TimeScale,
					})
				}
			}
			for ri := range p.Resources {
				res := &p.Resources[ri]
				key := model.ResourceEventDay{Resource: res.ID, Event: ev.ID, Day: t}
				if u := vals.U[key]; u > 0 {
					f.Resources = append(f.Resources, plan.ResourceUsage{
						ResourceID: res.ID,
						Quantity:   float64(u) / plan.TimeScale,
						Unit:       "h",
					})
				}
			}
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// buildTimeline renders the Gantt view: per-(land, crop) spans of
// constant planted area, plus every firing with its attributions.
func buildTimeline(p *plan.Plan, ctx *model.Context, vals *model.Values) *plan.Timeline {
	tl := &plan.Timeline{
		LandSpans:   []plan.LandSpan{},
		Events:      []plan.TimelineEvent{},
		EntityNames: entityNames(p),
		StartDate:   p.Horizon.StartDate,
	}

	for li := range p.Lands {
		land := &p.Lands[li]
		for ci := range p.Crops {
			cropID := p.Crops[ci].ID
			spanStart := -1
			var spanArea int64
			flush := func(end int) {
				if spanStart < 0 {
					return
				}
				tl.LandSpans = append(tl.LandSpans, plan.LandSpan{
					LandID:   land.ID,
					CropID:   cropID,
					StartDay: spanStart - 1,
					EndDay:   end - 1,
					Area:     float64(spanArea) / plan.AreaScale,
				})
				spanStart = -1
			}
			for t := 1; t <= p.Horizon.NumDays; t++ {
				x := vals.X[model.LandCropDay{Land: land.ID, Crop: cropID, Day: t}]
				switch {
				case x == 0:
					flush(t - 1)
				case spanStart < 0:
					spanStart, spanArea = t, x
				case x != spanArea:
					flush(t - 1)
					spanStart, spanArea = t, x
				}
			}
			flush(p.Horizon.NumDays)
		}
	}

	for _, f := range extractFirings(p, vals) {
		ev := p.EventByID(f.EventID)
		te := plan.TimelineEvent{
			Day:            f.Day,
			EventID:        f.EventID,
			CropID:         f.CropID,
			LandIDs:        f.LandIDs,
			WorkerUsages:   f.Workers,
			ResourceUsages: f.Resources,
		}
		if ev != nil {
			te.EventName = ev.Name
		}
		if te.WorkerUsages == nil {
			te.WorkerUsages = []plan.WorkerUsage{}
		}
		if te.ResourceUsages == nil {
			te.ResourceUsages = []plan.ResourceUsage{}
		}
		tl.Events = append(tl.Events, te)
	}
	return tl
}

func entityNames(p *plan.Plan) map[string]map[string]string {
	names := map[string]map[string]string{
		"crops":     {},
		"lands":     {},
		"workers":   {},
		"resources": {},
		"events":    {},
	}
	for i := range p.Crops {
		names["crops"][p.Crops[i].ID] = p.Crops[i].Name
	}
	for i := range p.Lands {
		names["lands"][p.Lands[i].ID] = p.Lands[i].Name
	}
	for i := range p.Workers {
		names["workers"][p.Workers[i].ID] = p.Workers[i].Name
	}
	for i := range p.Resources {
		names["resources"][p.Resources[i].ID] = p.Resources[i].Name
	}
	for i := range p.Events {
		names["events"][p.Events[i].ID] = p.Events[i].Name
	}
	return names
}
