package plan

// API DTOs. These mirror the JSON accepted over HTTP: 0-based day
// indices and dual-unit fields where exactly one of the "a" / "10a"
// variants must be set. Normalization to the 1-based, single-unit
// domain model happens in FromAPI after Validate.

// APIPlan is the declarative farm description sent by clients.
type APIPlan struct {
	Horizon        APIHorizon         `json:"horizon"`
	Crops          []APICrop          `json:"crops"`
	Events         []APIEvent         `json:"events"`
	Lands          []APILand          `json:"lands"`
	Workers        []APIWorker        `json:"workers"`
	Resources      []APIResource      `json:"resources"`
	CropAreaBounds []APICropAreaBound `json:"crop_area_bounds,omitempty"`
	FixedAreas     []APIFixedArea     `json:"fixed_areas,omitempty"`
	Preferences    *APIPreferences    `json:"preferences,omitempty"`
	Stages         *APIStages         `json:"stages,omitempty"`
}

type APIHorizon struct {
	NumDays   int    `json:"num_days"`
	StartDate string `json:"start_date,omitempty"`
}

type APICrop struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	PricePerA   *float64 `json:"price_per_a,omitempty"`
	PricePer10A *float64 `json:"price_per_10a,omitempty"`
}

// NormalizedPrice returns the price per "a", or nil when unpriced.
func (c *APICrop) NormalizedPrice() *float64 {
	if c.PricePerA != nil {
		v := *c.PricePerA
		return &v
	}
	if c.PricePer10A != nil {
		v := *c.PricePer10A / 10.0
		return &v
	}
	return nil
}

type APIEvent struct {
	ID                string   `json:"id"`
	CropID            string   `json:"crop_id"`
	Name              string   `json:"name"`
	Category          string   `json:"category,omitempty"`
	StartCond         []int    `json:"start_cond,omitempty"`
	EndCond           []int    `json:"end_cond,omitempty"`
	FrequencyDays     int      `json:"frequency_days,omitempty"`
	PrecedingEventID  string   `json:"preceding_event_id,omitempty"`
	LagMinDays        *int     `json:"lag_min_days,omitempty"`
	LagMaxDays        *int     `json:"lag_max_days,omitempty"`
	PeopleRequired    int      `json:"people_required,omitempty"`
	LaborTotalPerA    *float64 `json:"labor_total_per_a,omitempty"`
	LaborDailyCap     *float64 `json:"labor_daily_cap,omitempty"`
	RequiredRoles     []string `json:"required_roles,omitempty"`
	RequiredResources []string `json:"required_resources,omitempty"`
	UsesLand          bool     `json:"uses_land,omitempty"`
}

type APILand struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AreaA       *float64 `json:"area_a,omitempty"`
	Area10A     *float64 `json:"area_10a,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	BlockedDays []int    `json:"blocked_days,omitempty"`
}

// NormalizedArea returns the area in "a".
func (l *APILand) NormalizedArea() float64 {
	if l.AreaA != nil {
		return *l.AreaA
	}
	if l.Area10A != nil {
		return *l.Area10A * 10.0
	}
	return 0
}

type APIWorker struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Roles          []string `json:"roles,omitempty"`
	CapacityPerDay float64  `json:"capacity_per_day"`
	BlockedDays    []int    `json:"blocked_days,omitempty"`
}

type APIResource struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category,omitempty"`
	CapacityPerDay *float64 `json:"capacity_per_day,omitempty"`
	BlockedDays    []int    `json:"blocked_days,omitempty"`
}

type APICropAreaBound struct {
	CropID     string   `json:"crop_id"`
	MinAreaA   *float64 `json:"min_area_a,omitempty"`
	MinArea10A *float64 `json:"min_area_10a,omitempty"`
	MaxAreaA   *float64 `json:"max_area_a,omitempty"`
	MaxArea10A *float64 `json:"max_area_10a,omitempty"`
}

func normArea(a, tenA *float64) *float64 {
	if a != nil {
		v := *a
		return &v
	}
	if tenA != nil {
		v := *tenA * 10.0
		return &v
	}
	return nil
}

type APIFixedArea struct {
	LandID  string   `json:"land_id"`
	CropID  string   `json:"crop_id"`
	AreaA   *float64 `json:"area_a,omitempty"`
	Area10A *float64 `json:"area_10a,omitempty"`
	// Tag-aggregate fixed areas are rejected at validation; the
	// per-land triple is the canonical form.
	LandTag string `json:"land_tag,omitempty"`
}

type APIPreferences struct {
	WProfit     float64 `json:"w_profit,omitempty"`
	WLabor      float64 `json:"w_labor,omitempty"`
	WIdle       float64 `json:"w_idle,omitempty"`
	WDispersion float64 `json:"w_dispersion,omitempty"`
	WPeak       float64 `json:"w_peak,omitempty"`
	WDiversity  float64 `json:"w_diversity,omitempty"`
}

type APIStages struct {
	StageOrder       []string           `json:"stage_order,omitempty"`
	ToleranceByStage map[string]float64 `json:"tolerance_by_stage,omitempty"`
}

// FromAPI converts a validated APIPlan into the 1-based domain model.
// Callers must run Validate first; FromAPI assumes a well-formed input.
func FromAPI(a *APIPlan) *Plan {
	p := &Plan{
		Horizon: Horizon{NumDays: a.Horizon.NumDays, StartDate: a.Horizon.StartDate},
	}

	for _, c := range a.Crops {
		p.Crops = append(p.Crops, Crop{
			ID:           c.ID,
			Name:         c.Name,
			Category:     c.Category,
			PricePerArea: c.NormalizedPrice(),
		})
	}

	for _, e := range a.Events {
		p.Events = append(p.Events, Event{
			ID:                e.ID,
			CropID:            e.CropID,
			Name:              e.Name,
			Category:          e.Category,
			StartCond:         shiftDays(e.StartCond),
			EndCond:           shiftDays(e.EndCond),
			FrequencyDays:     e.FrequencyDays,
			PrecedingEventID:  e.PrecedingEventID,
			LagMinDays:        e.LagMinDays,
			LagMaxDays:        e.LagMaxDays,
			PeopleRequired:    e.PeopleRequired,
			LaborTotalPerArea: e.LaborTotalPerA,
			LaborDailyCap:     e.LaborDailyCap,
			RequiredRoles:     append([]string(nil), e.RequiredRoles...),
			RequiredResources: append([]string(nil), e.RequiredResources...),
			UsesLand:          e.UsesLand,
		})
	}

	for _, l := range a.Lands {
		p.Lands = append(p.Lands, Land{
			ID:          l.ID,
			Name:        l.Name,
			Area:        l.NormalizedArea(),
			Tags:        append([]string(nil), l.Tags...),
			BlockedDays: shiftDaySet(l.BlockedDays),
		})
	}

	for _, w := range a.Workers {
		p.Workers = append(p.Workers, Worker{
			ID:             w.ID,
			Name:           w.Name,
			Roles:          append([]string(nil), w.Roles...),
			CapacityPerDay: w.CapacityPerDay,
			BlockedDays:    shiftDaySet(w.BlockedDays),
		})
	}

	for _, r := range a.Resources {
		p.Resources = append(p.Resources, Resource{
			ID:             r.ID,
			Name:           r.Name,
			Category:       r.Category,
			CapacityPerDay: r.CapacityPerDay,
			BlockedDays:    shiftDaySet(r.BlockedDays),
		})
	}

	for _, b := range a.CropAreaBounds {
		p.Bounds = append(p.Bounds, CropAreaBound{
			CropID:  b.CropID,
			MinArea: normArea(b.MinAreaA, b.MinArea10A),
			MaxArea: normArea(b.MaxAreaA, b.MaxArea10A),
		})
	}

	for _, f := range a.FixedAreas {
		area := normArea(f.AreaA, f.Area10A)
		if area == nil {
			continue
		}
		p.Fixed = append(p.Fixed, FixedArea{LandID: f.LandID, CropID: f.CropID, Area: *area})
	}

	if a.Stages != nil {
		p.Stages = &StageConfig{
			Order:     append([]string(nil), a.Stages.StageOrder...),
			Tolerance: a.Stages.ToleranceByStage,
		}
	}

	return p
}

// shiftDays converts a 0-based day list to 1-based.
func shiftDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d + 1
	}
	return out
}

// shiftDaySet converts a 0-based day list to a 1-based set.
func shiftDaySet(days []int) map[int]bool {
	if len(days) == 0 {
		return nil
	}
	out := make(map[int]bool, len(days))
	for _, d := range days {
		out[d+1] = true
	}
	return out
}
