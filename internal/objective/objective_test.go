package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

func f(v float64) *float64 { return &v }

func TestByName(t *testing.T) {
	for _, name := range plan.StageNames {
		obj, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, obj.Name())
		assert.Positive(t, obj.Scale())
	}
	_, ok := ByName("bogus")
	assert.False(t, ok)
}

func TestSenses(t *testing.T) {
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 3},
		Crops:   []plan.Crop{{ID: "c", PricePerArea: f(50)}},
		Events:  []plan.Event{{ID: "e", CropID: "c", UsesLand: true, LaborTotalPerArea: f(1)}},
		Lands:   []plan.Land{{ID: "l", Area: 1}},
		Workers: []plan.Worker{{ID: "w", CapacityPerDay: 8}},
	}

	want := map[string]solve.Sense{
		"profit":     solve.Maximize,
		"labor":      solve.Minimize,
		"idle":       solve.Minimize,
		"dispersion": solve.Minimize,
		"peak":       solve.Minimize,
		"diversity":  solve.Maximize,
	}
	for name, sense := range want {
		obj, ok := ByName(name)
		require.True(t, ok, name)
		ctx := model.NewContext(p)
		_, got, err := obj.Build(ctx)
		require.NoError(t, err, name)
		assert.Equal(t, sense, got, name)
	}
}

func TestProfitSkipsUnpricedCrops(t *testing.T) {
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 3},
		Crops:   []plan.Crop{{ID: "free"}},
		Events:  []plan.Event{{ID: "e", CropID: "free", UsesLand: true}},
		Lands:   []plan.Land{{ID: "l", Area: 1}},
	}
	ctx := model.NewContext(p)
	expr, _, err := Profit{}.Build(ctx)
	require.NoError(t, err)
	assert.True(t, expr.Empty())
}

func TestIdleCountsUnblockedCapacity(t *testing.T) {
	p := &plan.Plan{
		Horizon: plan.Horizon{NumDays: 3},
		Crops:   []plan.Crop{{ID: "c"}},
		Events:  []plan.Event{{ID: "e", CropID: "c", UsesLand: true}},
		Lands: []plan.Land{
			{ID: "l", Area: 2, BlockedDays: map[int]bool{2: true}},
		},
	}
	ctx := model.NewContext(p)
	expr, _, err := Idle{}.Build(ctx)
	require.NoError(t, err)
	// Two unblocked days of 2a capacity.
	assert.Equal(t, int64(40), expr.Const)
}
