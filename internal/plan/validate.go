package plan

import (
	"fmt"
	"strings"
)

// FieldError is one structural or semantic problem in an input plan.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all problems found in one pass so clients
// can fix everything at once.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "invalid plan: " + strings.Join(msgs, "; ")
}

type validator struct {
	errs []FieldError
}

func (v *validator) addf(field, format string, args ...any) {
	v.errs = append(v.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks an APIPlan for structural and semantic errors:
// dual-unit exclusivity, resolvable references, day ranges, lag order,
// tolerance ranges, and the canonical fixed-area form. It returns a
// *ValidationError listing every problem, or nil.
func Validate(a *APIPlan) error {
	v := &validator{}

	if a.Horizon.NumDays <= 0 {
		v.addf("horizon.num_days", "must be positive, got %d", a.Horizon.NumDays)
	}
	maxDay := a.Horizon.NumDays - 1 // 0-based at this layer

	cropIDs := make(map[string]bool, len(a.Crops))
	for i, c := range a.Crops {
		field := fmt.Sprintf("crops[%d]", i)
		if c.ID == "" {
			v.addf(field+".id", "must not be empty")
		}
		if cropIDs[c.ID] {
			v.addf(field+".id", "duplicate crop id %q", c.ID)
		}
		cropIDs[c.ID] = true
		if c.PricePerA != nil && c.PricePer10A != nil {
			v.addf(field, "specify exactly one of price_per_a and price_per_10a")
		}
	}

	eventIDs := make(map[string]bool, len(a.Events))
	eventCrop := make(map[string]string, len(a.Events))
	eventsPerCrop := make(map[string]int, len(a.Crops))
	for i, e := range a.Events {
		field := fmt.Sprintf("events[%d]", i)
		if e.ID == "" {
			v.addf(field+".id", "must not be empty")
		}
		if eventIDs[e.ID] {
			v.addf(field+".id", "duplicate event id %q", e.ID)
		}
		eventIDs[e.ID] = true
		eventCrop[e.ID] = e.CropID
		if !cropIDs[e.CropID] {
			v.addf(field+".crop_id", "unknown crop %q", e.CropID)
		} else {
			eventsPerCrop[e.CropID]++
		}
		if e.FrequencyDays < 0 {
			v.addf(field+".frequency_days", "must be positive when set")
		}
		if e.LagMinDays != nil && e.LagMaxDays != nil && *e.LagMinDays > *e.LagMaxDays {
			v.addf(field, "lag_min_days %d exceeds lag_max_days %d", *e.LagMinDays, *e.LagMaxDays)
		}
		if (e.LagMinDays != nil || e.LagMaxDays != nil) && e.PrecedingEventID == "" {
			v.addf(field, "lag days require preceding_event_id")
		}
		v.checkDays(field+".start_cond", e.StartCond, maxDay)
		v.checkDays(field+".end_cond", e.EndCond, maxDay)
		if e.LaborTotalPerA != nil && *e.LaborTotalPerA < 0 {
			v.addf(field+".labor_total_per_a", "must not be negative")
		}
		if e.LaborDailyCap != nil && *e.LaborDailyCap <= 0 {
			v.addf(field+".labor_daily_cap", "must be positive when set")
		}
		if e.PeopleRequired < 0 {
			v.addf(field+".people_required", "must not be negative")
		}
	}
	for i, e := range a.Events {
		if e.PrecedingEventID == "" {
			continue
		}
		field := fmt.Sprintf("events[%d].preceding_event_id", i)
		if !eventIDs[e.PrecedingEventID] {
			v.addf(field, "unknown event %q", e.PrecedingEventID)
		} else if eventCrop[e.PrecedingEventID] != e.CropID {
			v.addf(field, "preceding event must belong to the same crop")
		} else if e.PrecedingEventID == e.ID {
			v.addf(field, "event cannot precede itself")
		}
	}
	for id := range cropIDs {
		if eventsPerCrop[id] == 0 {
			v.addf("crops", "crop %q has no events", id)
		}
	}

	landIDs := make(map[string]bool, len(a.Lands))
	for i, l := range a.Lands {
		field := fmt.Sprintf("lands[%d]", i)
		if l.ID == "" {
			v.addf(field+".id", "must not be empty")
		}
		if landIDs[l.ID] {
			v.addf(field+".id", "duplicate land id %q", l.ID)
		}
		landIDs[l.ID] = true
		if (l.AreaA == nil) == (l.Area10A == nil) {
			v.addf(field, "specify exactly one of area_a and area_10a")
		} else if l.NormalizedArea() <= 0 {
			v.addf(field, "area must be positive")
		}
		v.checkDays(field+".blocked_days", l.BlockedDays, maxDay)
	}

	workerIDs := make(map[string]bool, len(a.Workers))
	rolesSeen := make(map[string]bool)
	for i, w := range a.Workers {
		field := fmt.Sprintf("workers[%d]", i)
		if w.ID == "" {
			v.addf(field+".id", "must not be empty")
		}
		if workerIDs[w.ID] {
			v.addf(field+".id", "duplicate worker id %q", w.ID)
		}
		workerIDs[w.ID] = true
		if w.CapacityPerDay <= 0 {
			v.addf(field+".capacity_per_day", "must be positive")
		}
		for _, r := range w.Roles {
			rolesSeen[r] = true
		}
		v.checkDays(field+".blocked_days", w.BlockedDays, maxDay)
	}

	resourceIDs := make(map[string]bool, len(a.Resources))
	for i, r := range a.Resources {
		field := fmt.Sprintf("resources[%d]", i)
		if r.ID == "" {
			v.addf(field+".id", "must not be empty")
		}
		if resourceIDs[r.ID] {
			v.addf(field+".id", "duplicate resource id %q", r.ID)
		}
		resourceIDs[r.ID] = true
		if r.CapacityPerDay != nil && *r.CapacityPerDay <= 0 {
			v.addf(field+".capacity_per_day", "must be positive when set")
		}
		v.checkDays(field+".blocked_days", r.BlockedDays, maxDay)
	}

	for i, e := range a.Events {
		field := fmt.Sprintf("events[%d]", i)
		for _, res := range e.RequiredResources {
			if !resourceIDs[res] {
				v.addf(field+".required_resources", "unknown resource %q", res)
			}
		}
	}

	for i, b := range a.CropAreaBounds {
		field := fmt.Sprintf("crop_area_bounds[%d]", i)
		if !cropIDs[b.CropID] {
			v.addf(field+".crop_id", "unknown crop %q", b.CropID)
		}
		if b.MinAreaA != nil && b.MinArea10A != nil {
			v.addf(field, "specify at most one of min_area_a and min_area_10a")
		}
		if b.MaxAreaA != nil && b.MaxArea10A != nil {
			v.addf(field, "specify at most one of max_area_a and max_area_10a")
		}
		minV := normArea(b.MinAreaA, b.MinArea10A)
		maxV := normArea(b.MaxAreaA, b.MaxArea10A)
		if minV != nil && maxV != nil && *minV > *maxV {
			v.addf(field, "min_area %.3f exceeds max_area %.3f", *minV, *maxV)
		}
	}

	for i, f := range a.FixedAreas {
		field := fmt.Sprintf("fixed_areas[%d]", i)
		if f.LandTag != "" {
			v.addf(field+".land_tag", "tag-aggregate fixed areas are not supported; use land_id")
		}
		if !landIDs[f.LandID] {
			v.addf(field+".land_id", "unknown land %q", f.LandID)
		}
		if !cropIDs[f.CropID] {
			v.addf(field+".crop_id", "unknown crop %q", f.CropID)
		}
		if (f.AreaA == nil) == (f.Area10A == nil) {
			v.addf(field, "specify exactly one of area_a and area_10a")
		}
	}

	if a.Stages != nil {
		for name, tol := range a.Stages.ToleranceByStage {
			if tol < 0 || tol > 1 {
				v.addf("stages.tolerance_by_stage."+name, "tolerance must be in [0,1], got %g", tol)
			}
		}
		for i, name := range a.Stages.StageOrder {
			if !knownStage(name) {
				v.addf(fmt.Sprintf("stages.stage_order[%d]", i), "unknown stage %q", name)
			}
		}
	}

	if len(v.errs) > 0 {
		return &ValidationError{Errors: v.errs}
	}
	return nil
}

func (v *validator) checkDays(field string, days []int, maxDay int) {
	for _, d := range days {
		if d < 0 || d > maxDay {
			v.addf(field, "day %d out of range 0..%d", d, maxDay)
		}
	}
}

// StageNames lists the objectives the lexicographic planner accepts,
// in the canonical full order.
var StageNames = []string{"profit", "labor", "idle", "dispersion", "peak", "diversity"}

func knownStage(name string) bool {
	for _, s := range StageNames {
		if s == name {
			return true
		}
	}
	return false
}
