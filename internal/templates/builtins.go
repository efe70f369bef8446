package templates

import "github.com/talgya/cropplan/internal/plan"

func f(v float64) *float64 { return &v }

// builtins is the shipped catalog: small, realistic starting points
// that solve quickly.
func builtins() []*Template {
	return []*Template{
		marketGarden(),
		leafyGreensSuccession(),
	}
}

// marketGarden: two plots, two crops, one worker, plant-then-harvest
// events with a labor budget.
func marketGarden() *Template {
	return &Template{
		ID:          "market-garden",
		Name:        "Market garden",
		Description: "Two plots, tomatoes and lettuce, one worker over a 30-day window.",
		Plan: &plan.APIPlan{
			Horizon: plan.APIHorizon{NumDays: 30},
			Crops: []plan.APICrop{
				{ID: "tomato", Name: "Tomato", Category: "fruit", PricePerA: f(48000)},
				{ID: "lettuce", Name: "Lettuce", Category: "leaf", PricePerA: f(21000)},
			},
			Events: []plan.APIEvent{
				{
					ID: "tomato-plant", CropID: "tomato", Name: "Plant tomatoes",
					StartCond: []int{0}, EndCond: []int{9}, UsesLand: true,
					LaborTotalPerA: f(4), PeopleRequired: 1,
				},
				{
					ID: "tomato-harvest", CropID: "tomato", Name: "Harvest tomatoes",
					StartCond: []int{14}, EndCond: []int{29}, UsesLand: true,
					PrecedingEventID: "tomato-plant", LagMinDays: intp(14), LagMaxDays: intp(25),
					LaborTotalPerA: f(6), PeopleRequired: 1,
				},
				{
					ID: "lettuce-plant", CropID: "lettuce", Name: "Plant lettuce",
					StartCond: []int{0}, EndCond: []int{14}, UsesLand: true,
					LaborTotalPerA: f(2), PeopleRequired: 1,
				},
				{
					ID: "lettuce-harvest", CropID: "lettuce", Name: "Harvest lettuce",
					StartCond: []int{10}, EndCond: []int{29}, UsesLand: true,
					PrecedingEventID: "lettuce-plant", LagMinDays: intp(10), LagMaxDays: intp(20),
					LaborTotalPerA: f(3), PeopleRequired: 1,
				},
			},
			Lands: []plan.APILand{
				{ID: "north", Name: "North plot", AreaA: f(3)},
				{ID: "south", Name: "South plot", AreaA: f(2)},
			},
			Workers: []plan.APIWorker{
				{ID: "w1", Name: "Grower", CapacityPerDay: 8},
			},
		},
	}
}

// leafyGreensSuccession: repeated weeding on a frequency with a shared
// cultivator resource.
func leafyGreensSuccession() *Template {
	return &Template{
		ID:          "leafy-greens",
		Name:        "Leafy greens succession",
		Description: "Spinach with weekly weeding and a shared cultivator, 21-day window.",
		Plan: &plan.APIPlan{
			Horizon: plan.APIHorizon{NumDays: 21},
			Crops: []plan.APICrop{
				{ID: "spinach", Name: "Spinach", Category: "leaf", PricePer10A: f(180000)},
			},
			Events: []plan.APIEvent{
				{
					ID: "sow", CropID: "spinach", Name: "Sow",
					StartCond: []int{0}, EndCond: []int{5}, UsesLand: true,
					LaborTotalPerA: f(1.5), PeopleRequired: 1,
				},
				{
					ID: "weed", CropID: "spinach", Name: "Weed",
					StartCond: []int{3}, EndCond: []int{20}, FrequencyDays: 7,
					LaborTotalPerA: f(0.5), PeopleRequired: 1,
					RequiredResources: []string{"cultivator"},
				},
				{
					ID: "cut", CropID: "spinach", Name: "Cut",
					StartCond: []int{14}, EndCond: []int{20}, UsesLand: true,
					PrecedingEventID: "sow", LagMinDays: intp(14),
					LaborTotalPerA: f(2), PeopleRequired: 1,
				},
			},
			Lands: []plan.APILand{
				{ID: "tunnel", Name: "Tunnel bed", Area10A: f(0.4)},
			},
			Workers: []plan.APIWorker{
				{ID: "w1", Name: "Grower", CapacityPerDay: 8},
				{ID: "w2", Name: "Helper", CapacityPerDay: 4},
			},
			Resources: []plan.APIResource{
				{ID: "cultivator", Name: "Cultivator", CapacityPerDay: f(6)},
			},
		},
	}
}

func intp(v int) *int { return &v }
