package templates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/plan"
)

func TestBuiltinsValidate(t *testing.T) {
	for _, tpl := range builtins() {
		assert.NoError(t, plan.Validate(tpl.Plan), tpl.ID)
	}
}

func TestLoadBuiltinsOnly(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	list := c.List()
	require.GreaterOrEqual(t, len(list), 2)
	for _, tpl := range list {
		assert.NotEmpty(t, tpl.ID)
		assert.NotEmpty(t, tpl.Name)
		assert.Nil(t, tpl.Plan, "summaries omit the plan body")
	}

	got := c.Get("market-garden")
	require.NotNil(t, got)
	assert.NotNil(t, got.Plan)
	assert.Nil(t, c.Get("nope"))
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	tpl := Template{
		Name:        "Custom",
		Description: "from disk",
		Plan: &plan.APIPlan{
			Horizon: plan.APIHorizon{NumDays: 7},
		},
	}
	data, err := json.Marshal(tpl)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.json"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	c, err := Load(dir)
	require.NoError(t, err)

	// File name supplies the missing id.
	got := c.Get("custom")
	require.NotNil(t, got)
	assert.Equal(t, "Custom", got.Name)
	assert.Equal(t, 7, got.Plan.Horizon.NumDays)
}

func TestLoadBadDirectory(t *testing.T) {
	_, err := Load("/nonexistent/templates")
	assert.Error(t, err)
}

func TestInstantiateOverrides(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	p, err := c.Instantiate("market-garden", Params{NumDays: 45, StartDate: "2026-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 45, p.Horizon.NumDays)
	assert.Equal(t, "2026-03-01", p.Horizon.StartDate)

	// The catalog copy is untouched.
	assert.Equal(t, 30, c.Get("market-garden").Plan.Horizon.NumDays)

	_, err = c.Instantiate("nope", Params{})
	assert.Error(t, err)
}

func TestInstantiateReturnsIndependentCopies(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	a, err := c.Instantiate("leafy-greens", Params{})
	require.NoError(t, err)
	b, err := c.Instantiate("leafy-greens", Params{})
	require.NoError(t, err)

	a.Crops[0].ID = "mutated"
	assert.Equal(t, "spinach", b.Crops[0].ID)

	// The cached render is also immune.
	again, err := c.Instantiate("leafy-greens", Params{})
	require.NoError(t, err)
	assert.Equal(t, "spinach", again.Crops[0].ID)
}
