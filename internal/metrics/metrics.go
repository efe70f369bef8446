// Package metrics derives per-day series from a solved timeline:
// planted area, labor hours and resource usage, shaped for charting.
package metrics

import (
	"sort"

	"github.com/samber/lo"

	"github.com/talgya/cropplan/internal/plan"
)

// DaySeries is one metric sampled per day over the horizon.
type DaySeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Summary is the aggregated view of a timeline.
type Summary struct {
	NumDays       int         `json:"num_days"`
	PlantedArea   DaySeries   `json:"planted_area"`
	LaborHours    DaySeries   `json:"labor_hours"`
	AreaByCrop    []DaySeries `json:"area_by_crop"`
	HoursByWorker []DaySeries `json:"hours_by_worker"`
	PeakLaborDay  int         `json:"peak_labor_day"`
	PeakLabor     float64     `json:"peak_labor_hours"`
	TotalLabor    float64     `json:"total_labor_hours"`
}

// FromTimeline aggregates a timeline into day-indexed series. numDays
// must cover every span and event day.
func FromTimeline(tl *plan.Timeline, numDays int) *Summary {
	s := &Summary{
		NumDays:     numDays,
		PlantedArea: DaySeries{Name: "planted_area_a", Values: make([]float64, numDays)},
		LaborHours:  DaySeries{Name: "labor_hours", Values: make([]float64, numDays)},
	}

	byCrop := lo.GroupBy(tl.LandSpans, func(sp plan.LandSpan) string { return sp.CropID })
	cropIDs := lo.Keys(byCrop)
	sort.Strings(cropIDs)
	for _, cropID := range cropIDs {
		series := DaySeries{Name: cropID, Values: make([]float64, numDays)}
		for _, sp := range byCrop[cropID] {
			for d := sp.StartDay; d <= sp.EndDay && d < numDays; d++ {
				if d < 0 {
					continue
				}
				series.Values[d] += sp.Area
				s.PlantedArea.Values[d] += sp.Area
			}
		}
		s.AreaByCrop = append(s.AreaByCrop, series)
	}

	workerHours := map[string][]float64{}
	for _, ev := range tl.Events {
		if ev.Day < 0 || ev.Day >= numDays {
			continue
		}
		for _, wu := range ev.WorkerUsages {
			s.LaborHours.Values[ev.Day] += wu.Hours
			if workerHours[wu.WorkerID] == nil {
				workerHours[wu.WorkerID] = make([]float64, numDays)
			}
			workerHours[wu.WorkerID][ev.Day] += wu.Hours
		}
	}
	workerIDs := lo.Keys(workerHours)
	sort.Strings(workerIDs)
	for _, id := range workerIDs {
		s.HoursByWorker = append(s.HoursByWorker, DaySeries{Name: id, Values: workerHours[id]})
	}

	s.TotalLabor = lo.Sum(s.LaborHours.Values)
	for d, v := range s.LaborHours.Values {
		if v > s.PeakLabor {
			s.PeakLabor = v
			s.PeakLaborDay = d
		}
	}
	return s
}
