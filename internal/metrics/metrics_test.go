package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/plan"
)

func sampleTimeline() *plan.Timeline {
	return &plan.Timeline{
		LandSpans: []plan.LandSpan{
			{LandID: "north", CropID: "tomato", StartDay: 1, EndDay: 3, Area: 2},
			{LandID: "south", CropID: "lettuce", StartDay: 2, EndDay: 2, Area: 1.5},
		},
		Events: []plan.TimelineEvent{
			{
				Day: 1, EventID: "plant", CropID: "tomato",
				WorkerUsages: []plan.WorkerUsage{
					{WorkerID: "w1", Hours: 4},
					{WorkerID: "w2", Hours: 2},
				},
			},
			{
				Day: 3, EventID: "harvest", CropID: "tomato",
				WorkerUsages: []plan.WorkerUsage{
					{WorkerID: "w1", Hours: 5},
				},
			},
		},
	}
}

func TestFromTimeline(t *testing.T) {
	s := FromTimeline(sampleTimeline(), 5)

	assert.Equal(t, 5, s.NumDays)
	assert.Equal(t, []float64{0, 2, 3.5, 2, 0}, s.PlantedArea.Values)
	assert.Equal(t, []float64{0, 6, 0, 5, 0}, s.LaborHours.Values)

	require.Len(t, s.AreaByCrop, 2)
	// Crop series are sorted by id.
	assert.Equal(t, "lettuce", s.AreaByCrop[0].Name)
	assert.Equal(t, "tomato", s.AreaByCrop[1].Name)
	assert.Equal(t, []float64{0, 2, 2, 2, 0}, s.AreaByCrop[1].Values)

	require.Len(t, s.HoursByWorker, 2)
	assert.Equal(t, "w1", s.HoursByWorker[0].Name)
	assert.Equal(t, []float64{0, 4, 0, 5, 0}, s.HoursByWorker[0].Values)
	assert.Equal(t, []float64{0, 2, 0, 0, 0}, s.HoursByWorker[1].Values)

	assert.Equal(t, 1, s.PeakLaborDay)
	assert.Equal(t, 6.0, s.PeakLabor)
	assert.Equal(t, 11.0, s.TotalLabor)
}

func TestFromTimelineClampsOutOfRange(t *testing.T) {
	tl := &plan.Timeline{
		LandSpans: []plan.LandSpan{
			{LandID: "l", CropID: "c", StartDay: -2, EndDay: 10, Area: 1},
		},
		Events: []plan.TimelineEvent{
			{Day: 99, EventID: "e", CropID: "c",
				WorkerUsages: []plan.WorkerUsage{{WorkerID: "w", Hours: 1}}},
		},
	}
	s := FromTimeline(tl, 3)
	assert.Equal(t, []float64{1, 1, 1}, s.PlantedArea.Values)
	assert.Equal(t, 0.0, s.TotalLabor)
	assert.Empty(t, s.HoursByWorker)
}

func TestFromTimelineEmpty(t *testing.T) {
	s := FromTimeline(&plan.Timeline{}, 4)
	assert.Equal(t, []float64{0, 0, 0, 0}, s.PlantedArea.Values)
	assert.Zero(t, s.TotalLabor)
	assert.Zero(t, s.PeakLabor)
}
