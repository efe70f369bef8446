// Package plan defines the domain model for farm planning requests:
// lands, crops, cultivation events, workers, pooled resources, bounds
// and fixed allocations, plus the wire-level DTOs accepted by the API.
//
// Days are 1-based inside the domain model (1..NumDays). The API layer
// speaks 0-based day indices; conversion happens in FromAPI / the
// planner's extraction step.
package plan

import "math"

const (
	// AreaScale is the number of integer area units per area-unit "a".
	// 1 unit = 0.1a.
	AreaScale = 10

	// TimeScale is the number of integer time units per hour.
	// 1 unit = 0.1h.
	TimeScale = 10
)

// AreaUnits converts a continuous area in "a" to integer model units.
func AreaUnits(area float64) int64 {
	return int64(math.Round(area * AreaScale))
}

// HourUnits converts continuous hours to integer model units.
func HourUnits(hours float64) int64 {
	return int64(math.Round(hours * TimeScale))
}

// Horizon is the planning window, NumDays days indexed 1..NumDays.
type Horizon struct {
	NumDays   int
	StartDate string // optional ISO date, passed through to the timeline
}

// Crop is a plantable crop. PricePerArea is the normalized unit price
// per "a"; nil when the crop carries no price.
type Crop struct {
	ID           string
	Name         string
	Category     string
	PricePerArea *float64
}

// Land is a plot with a fixed area in "a". BlockedDays are days the
// land cannot hold any crop.
type Land struct {
	ID          string
	Name        string
	Area        float64
	Tags        []string
	BlockedDays map[int]bool
}

// Blocked reports whether day t is blocked for the land.
func (l *Land) Blocked(t int) bool { return l.BlockedDays[t] }

// AreaUnits returns the land capacity in integer area units.
func (l *Land) AreaUnits() int64 { return AreaUnits(l.Area) }

// Event is a cultivation operation belonging to a crop. StartCond and
// EndCond restrict the firing window; empty sets mean "any day".
type Event struct {
	ID       string
	CropID   string
	Name     string
	Category string

	StartCond []int
	EndCond   []int

	FrequencyDays    int // 0 = unconstrained
	PrecedingEventID string
	LagMinDays       *int
	LagMaxDays       *int

	PeopleRequired    int
	LaborTotalPerArea *float64 // h per a
	LaborDailyCap     *float64 // h per day

	RequiredRoles     []string
	RequiredResources []string

	// UsesLand marks events that occupy land while active; the crop's
	// occupancy interval is derived from these.
	UsesLand bool
}

// HasLabor reports whether the event carries a labor demand.
func (e *Event) HasLabor() bool {
	return e.LaborTotalPerArea != nil && *e.LaborTotalPerArea > 0
}

// Worker is a person with a role set and a daily hour capacity.
type Worker struct {
	ID             string
	Name           string
	Roles          []string
	CapacityPerDay float64
	BlockedDays    map[int]bool
}

// Blocked reports whether day t is blocked for the worker.
func (w *Worker) Blocked(t int) bool { return w.BlockedDays[t] }

// CapacityUnits returns the daily capacity in integer time units.
func (w *Worker) CapacityUnits() int64 { return HourUnits(w.CapacityPerDay) }

// HasRole reports whether the worker carries the given role.
func (w *Worker) HasRole(role string) bool {
	for _, r := range w.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the worker carries at least one of the roles.
func (w *Worker) HasAnyRole(roles []string) bool {
	for _, r := range roles {
		if w.HasRole(r) {
			return true
		}
	}
	return false
}

// Resource is a pooled asset (machine, facility) with an optional
// daily hour capacity.
type Resource struct {
	ID             string
	Name           string
	Category       string
	CapacityPerDay *float64
	BlockedDays    map[int]bool
}

// Blocked reports whether day t is blocked for the resource.
func (r *Resource) Blocked(t int) bool { return r.BlockedDays[t] }

// CapacityUnits returns the daily capacity in integer time units, or
// fallback when no capacity is configured.
func (r *Resource) CapacityUnits(fallback int64) int64 {
	if r.CapacityPerDay == nil {
		return fallback
	}
	return HourUnits(*r.CapacityPerDay)
}

// FixedArea is a committed (land, crop, area) triple: a lower bound on
// the planted area for that pair over the horizon.
type FixedArea struct {
	LandID string
	CropID string
	Area   float64
}

// CropAreaBound bounds the total planted area of a crop, per day.
type CropAreaBound struct {
	CropID  string
	MinArea *float64
	MaxArea *float64
}

// StageConfig overrides the lexicographic stage order and per-stage
// tolerances. Tolerances are fractions in [0,1].
type StageConfig struct {
	Order     []string
	Tolerance map[string]float64
}

// Plan is a fully normalized planning request, ready for model building.
type Plan struct {
	Horizon   Horizon
	Crops     []Crop
	Events    []Event
	Lands     []Land
	Workers   []Worker
	Resources []Resource
	Bounds    []CropAreaBound
	Fixed     []FixedArea
	Stages    *StageConfig
}

// CropByID returns the crop with the given id, or nil.
func (p *Plan) CropByID(id string) *Crop {
	for i := range p.Crops {
		if p.Crops[i].ID == id {
			return &p.Crops[i]
		}
	}
	return nil
}

// EventByID returns the event with the given id, or nil.
func (p *Plan) EventByID(id string) *Event {
	for i := range p.Events {
		if p.Events[i].ID == id {
			return &p.Events[i]
		}
	}
	return nil
}

// LandByID returns the land with the given id, or nil.
func (p *Plan) LandByID(id string) *Land {
	for i := range p.Lands {
		if p.Lands[i].ID == id {
			return &p.Lands[i]
		}
	}
	return nil
}

// ResourceByID returns the resource with the given id, or nil.
func (p *Plan) ResourceByID(id string) *Resource {
	for i := range p.Resources {
		if p.Resources[i].ID == id {
			return &p.Resources[i]
		}
	}
	return nil
}

// EventsOfCrop returns the events owned by the crop, in input order.
func (p *Plan) EventsOfCrop(cropID string) []*Event {
	var out []*Event
	for i := range p.Events {
		if p.Events[i].CropID == cropID {
			out = append(out, &p.Events[i])
		}
	}
	return out
}

// LandUsingEvents returns the crop's events with UsesLand set.
func (p *Plan) LandUsingEvents(cropID string) []*Event {
	var out []*Event
	for _, e := range p.EventsOfCrop(cropID) {
		if e.UsesLand {
			out = append(out, e)
		}
	}
	return out
}
