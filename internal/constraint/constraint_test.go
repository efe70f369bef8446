package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

func f(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func solveFeasibility(t *testing.T, p *plan.Plan) solve.Result {
	t.Helper()
	ctx, err := model.Build(p, DefaultSet())
	require.NoError(t, err)
	return ctx.Model.Solve(solve.Options{})
}

func basePlan() *plan.Plan {
	return &plan.Plan{
		Horizon: plan.Horizon{NumDays: 4},
		Crops:   []plan.Crop{{ID: "tomato", PricePerArea: f(100)}},
		Events: []plan.Event{
			{ID: "plant", CropID: "tomato", UsesLand: true},
		},
		Lands: []plan.Land{{ID: "field-a", Area: 1}},
	}
}

func TestDefaultSetNames(t *testing.T) {
	names := Names(DefaultSet())
	assert.Equal(t, []string{
		"land_capacity", "link_area_use", "events", "occupancy",
		"hold_area", "labor", "roles", "resources", "fixed_area", "area_bounds",
	}, names)
}

func TestWithout(t *testing.T) {
	set := DefaultSet()
	trimmed := Without(set, "labor")
	assert.Len(t, trimmed, len(set)-1)
	assert.NotContains(t, Names(trimmed), "labor")
	assert.Len(t, Without(set, "nope"), len(set))
}

func TestLaborRatio(t *testing.T) {
	p, q := laborRatio(2.0)
	assert.Equal(t, int64(2), p)
	assert.Equal(t, int64(1), q)

	p, q = laborRatio(1.5)
	assert.Equal(t, int64(3), p)
	assert.Equal(t, int64(2), q)

	p, q = laborRatio(0.333)
	assert.Equal(t, int64(333), p)
	assert.Equal(t, int64(1000), q)
}

func TestGCD(t *testing.T) {
	assert.Equal(t, int64(6), gcd(12, 18))
	assert.Equal(t, int64(7), gcd(7, 0))
	assert.Equal(t, int64(1), gcd(0, 0))
}

func TestEmptyPlanFeasible(t *testing.T) {
	res := solveFeasibility(t, basePlan())
	assert.True(t, res.Status.Ok())
}

func TestFixedAreaExceedsCapacity(t *testing.T) {
	p := basePlan()
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 2}}
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)
}

func TestFixedAreaWithinCapacity(t *testing.T) {
	p := basePlan()
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}
	res := solveFeasibility(t, p)
	assert.True(t, res.Status.Ok())
}

func TestFixedAreaUnknownLand(t *testing.T) {
	p := basePlan()
	p.Fixed = []plan.FixedArea{{LandID: "nope", CropID: "tomato", Area: 0.5}}
	_, err := model.Build(p, DefaultSet())
	assert.Error(t, err)
}

func TestBlockedResourceBlocksEvent(t *testing.T) {
	p := basePlan()
	p.Resources = []plan.Resource{
		{ID: "tractor", BlockedDays: map[int]bool{1: true, 2: true, 3: true, 4: true}},
	}
	p.Events[0].RequiredResources = []string{"tractor"}
	// The crop must be grown, but its only event needs a resource that
	// is never available.
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)
}

func TestResourcePartiallyBlocked(t *testing.T) {
	p := basePlan()
	p.Resources = []plan.Resource{
		{ID: "tractor", BlockedDays: map[int]bool{1: true, 2: true}},
	}
	p.Events[0].RequiredResources = []string{"tractor"}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	res := solveFeasibility(t, p)
	assert.True(t, res.Status.Ok())
}

func TestRolesExcludeIneligibleWorkers(t *testing.T) {
	p := basePlan()
	p.Events[0].LaborTotalPerArea = f(1)
	p.Events[0].PeopleRequired = 2
	p.Events[0].RequiredRoles = []string{"operator"}
	p.Workers = []plan.Worker{
		{ID: "w1", Roles: []string{"operator"}, CapacityPerDay: 8},
		{ID: "w2", Roles: []string{"picker"}, CapacityPerDay: 8},
	}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	// Only one eligible operator for a two-person crew.
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)

	p.Workers[1].Roles = []string{"operator"}
	res = solveFeasibility(t, p)
	assert.True(t, res.Status.Ok())
}

func TestWorkerCapacityLimitsArea(t *testing.T) {
	p := basePlan()
	// 10h per a on a 1a fixed demand, squeezed into a one-day window;
	// the single worker has 8h.
	p.Events[0].LaborTotalPerArea = f(10)
	p.Events[0].StartCond = []int{1}
	p.Events[0].EndCond = []int{1}
	p.Workers = []plan.Worker{{ID: "w1", CapacityPerDay: 8}}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 1}}

	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)

	p.Fixed[0].Area = 0.8
	res = solveFeasibility(t, p)
	assert.True(t, res.Status.Ok())
}

func TestAreaBoundMaxCapsPlanting(t *testing.T) {
	p := basePlan()
	p.Bounds = []plan.CropAreaBound{{CropID: "tomato", MaxArea: f(0.3)}}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	// The fixed demand exceeds the per-day ceiling.
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)
}

func TestAreaBoundMinForcesCrop(t *testing.T) {
	p := basePlan()
	p.Bounds = []plan.CropAreaBound{{CropID: "tomato", MinArea: f(0.5)}}

	ctx, err := model.Build(p, DefaultSet())
	require.NoError(t, err)
	res := ctx.Model.Solve(solve.Options{})
	require.True(t, res.Status.Ok())

	vals := ctx.Extract(res.Values)
	assert.Equal(t, int64(1), vals.Use["tomato"], "a positive minimum forces the crop into play")
}

func TestAreaBoundMinInfeasibleWhenTooLarge(t *testing.T) {
	p := basePlan()
	p.Bounds = []plan.CropAreaBound{{CropID: "tomato", MinArea: f(2)}}
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)
}

func TestLandCapacitySharedByCrops(t *testing.T) {
	p := basePlan()
	p.Crops = append(p.Crops, plan.Crop{ID: "lettuce", PricePerArea: f(50)})
	p.Events = append(p.Events, plan.Event{ID: "sow", CropID: "lettuce", UsesLand: true})
	// Both crops demand 0.6a of a 1a land on overlapping days.
	p.Fixed = []plan.FixedArea{
		{LandID: "field-a", CropID: "tomato", Area: 0.6},
		{LandID: "field-a", CropID: "lettuce", Area: 0.6},
	}

	ctx, err := model.Build(p, DefaultSet())
	require.NoError(t, err)
	res := ctx.Model.Solve(solve.Options{})

	if res.Status.Ok() {
		// Feasible only if the two crops hold the land on disjoint days.
		vals := ctx.Extract(res.Values)
		for day := 1; day <= p.Horizon.NumDays; day++ {
			var total int64
			total += vals.X[model.LandCropDay{Land: "field-a", Crop: "tomato", Day: day}]
			total += vals.X[model.LandCropDay{Land: "field-a", Crop: "lettuce", Day: day}]
			assert.LessOrEqual(t, total, int64(10), "day %d over capacity", day)
		}
	}
}

func TestFrequencyLimitsFirings(t *testing.T) {
	// Frequency 3 over a 5-day window admits at most two firings, never
	// two within the same 3-day stretch.
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 5},
		Crops:   []plan.Crop{{ID: "tomato", PricePerArea: f(100)}},
		Events: []plan.Event{
			{ID: "weed", CropID: "tomato", UsesLand: true, FrequencyDays: 3},
		},
		Lands: []plan.Land{{ID: "field-a", Area: 1}},
	}

	ctx, err := model.Build(p, DefaultSet())
	require.NoError(t, err)

	var firings solve.LinExpr
	for day := 1; day <= 5; day++ {
		r, ok := ctx.R("weed", day)
		require.True(t, ok)
		firings.AddTerm(r, 1)
	}
	ctx.Model.SetObjective(firings, solve.Maximize)

	res := ctx.Model.Solve(solve.Options{})
	require.Equal(t, solve.Optimal, res.Status)
	assert.Equal(t, int64(2), res.Objective)

	vals := ctx.Extract(res.Values)
	var days []int
	for day := 1; day <= 5; day++ {
		if vals.R[model.EventDay{Event: "weed", Day: day}] == 1 {
			days = append(days, day)
		}
	}
	require.Len(t, days, 2)
	assert.GreaterOrEqual(t, days[1]-days[0], 3)
}

func TestLagExcludesRecentPredecessor(t *testing.T) {
	// The lag runs from the most recent predecessor firing: a pick at
	// day 4 with lag [2,3] tolerates a plant at day 1 but not a second
	// plant at day 3.
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 4},
		Crops:   []plan.Crop{{ID: "tomato", PricePerArea: f(100)}},
		Events: []plan.Event{
			{ID: "plant", CropID: "tomato", UsesLand: true},
			{
				ID: "pick", CropID: "tomato", UsesLand: true,
				PrecedingEventID: "plant",
				LagMinDays:       intp(2),
				LagMaxDays:       intp(3),
			},
		},
		Lands: []plan.Land{{ID: "field-a", Area: 1}},
	}

	ctx, err := model.Build(p, DefaultSet())
	require.NoError(t, err)

	var obj solve.LinExpr
	for _, pick := range []struct {
		event string
		day   int
	}{{"plant", 1}, {"plant", 3}, {"pick", 4}} {
		r, ok := ctx.R(pick.event, pick.day)
		require.True(t, ok)
		obj.AddTerm(r, 1)
	}
	ctx.Model.SetObjective(obj, solve.Maximize)

	res := ctx.Model.Solve(solve.Options{})
	require.Equal(t, solve.Optimal, res.Status)
	assert.Equal(t, int64(2), res.Objective, "plant@3 and pick@4 must not coexist")
}

func TestRolesRequireEachRoleCovered(t *testing.T) {
	p := basePlan()
	p.Events[0].LaborTotalPerArea = f(1)
	p.Events[0].RequiredRoles = []string{"operator", "picker"}
	p.Workers = []plan.Worker{
		{ID: "w1", Roles: []string{"operator"}, CapacityPerDay: 8},
		{ID: "w2", Roles: []string{"operator"}, CapacityPerDay: 8},
	}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	// Two operators cannot stand in for the missing picker.
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)

	p.Workers[1].Roles = []string{"picker"}
	res = solveFeasibility(t, p)
	assert.True(t, res.Status.Ok())
}

func TestBlockedLandDayBreaksRun(t *testing.T) {
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 5},
		Crops:   []plan.Crop{{ID: "tomato", PricePerArea: f(100)}},
		Events: []plan.Event{
			{ID: "plant", CropID: "tomato", UsesLand: true, StartCond: []int{1}, EndCond: []int{1}, LaborTotalPerArea: f(1)},
			{ID: "pick", CropID: "tomato", UsesLand: true, StartCond: []int{5}, EndCond: []int{5}, LaborTotalPerArea: f(1)},
		},
		Lands: []plan.Land{
			{ID: "field-a", Area: 1, BlockedDays: map[int]bool{3: true}},
		},
		Workers: []plan.Worker{
			{ID: "w1", CapacityPerDay: 8},
		},
	}
	p.Fixed = []plan.FixedArea{{LandID: "field-a", CropID: "tomato", Area: 0.5}}

	// Occupation must run day 1 through 5, but day 3 is blocked on the
	// only land: the contiguity budget cannot cover both halves.
	res := solveFeasibility(t, p)
	assert.Equal(t, solve.Infeasible, res.Status)
}
