package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
)

func f(v float64) *float64 { return &v }

func testRequest() *plan.OptimizationRequest {
	return &plan.OptimizationRequest{
		Plan: &plan.APIPlan{
			Horizon: plan.APIHorizon{NumDays: 4},
			Crops: []plan.APICrop{
				{ID: "tomato", Name: "Tomato", PricePerA: f(100)},
			},
			Events: []plan.APIEvent{
				{ID: "plant", CropID: "tomato", Name: "Plant", UsesLand: true},
			},
			Lands: []plan.APILand{
				{ID: "field-a", Name: "Field A", AreaA: f(1)},
			},
		},
	}
}

func testSolver() *planner.Solver {
	return &planner.Solver{DefaultTimeout: 10 * time.Second, MaxTimeout: 30 * time.Second}
}

func waitForTerminal(t *testing.T, b Backend, jobID string) *plan.JobInfo {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		info, err := b.Get(context.Background(), jobID)
		require.NoError(t, err)
		if info.Status.Terminal() {
			return info
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestInMemoryLifecycle(t *testing.T) {
	b := NewInMemoryBackend(testSolver(), 1, nil, nil)
	defer b.Close()

	info, err := b.Enqueue(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, info.JobID)
	assert.Equal(t, plan.JobQueued, info.Status)

	final := waitForTerminal(t, b, info.JobID)
	assert.Equal(t, plan.JobSucceeded, final.Status)
	assert.Equal(t, 1.0, final.Progress)
	require.NotNil(t, final.Result)
	assert.Equal(t, plan.ResultOK, final.Result.Status)
	require.NotNil(t, final.Result.ObjectiveValue)
	assert.InDelta(t, 100.0, *final.Result.ObjectiveValue, 1e-9)
	assert.NotNil(t, final.CompletedAt)
}

func TestInMemoryInfeasibleJobSucceeds(t *testing.T) {
	// Infeasibility is an in-band result, not a job failure.
	b := NewInMemoryBackend(testSolver(), 1, nil, nil)
	defer b.Close()

	req := testRequest()
	req.Plan.FixedAreas = []plan.APIFixedArea{
		{LandID: "field-a", CropID: "tomato", AreaA: f(2)},
	}
	info, err := b.Enqueue(context.Background(), req)
	require.NoError(t, err)

	final := waitForTerminal(t, b, info.JobID)
	assert.Equal(t, plan.JobSucceeded, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, plan.ResultInfeasible, final.Result.Status)
}

func TestInMemoryInvalidPlanFails(t *testing.T) {
	b := NewInMemoryBackend(testSolver(), 1, nil, nil)
	defer b.Close()

	req := testRequest()
	req.Plan.Horizon.NumDays = 0
	info, err := b.Enqueue(context.Background(), req)
	require.NoError(t, err, "validation happens at the API layer; the backend accepts the job")

	final := waitForTerminal(t, b, info.JobID)
	assert.Equal(t, plan.JobFailed, final.Status)
}

func TestCancelBeforeStart(t *testing.T) {
	// No processor: the job stays queued until canceled.
	blobs := store.NewMemBlobs()
	table := store.NewMemJobs()
	bus := store.NewMemBus()
	b := NewStoreBackend(blobs, table, bus, nil, time.Hour, nil)

	info, err := b.Enqueue(context.Background(), testRequest())
	require.NoError(t, err)

	canceled, err := b.Cancel(context.Background(), info.JobID)
	require.NoError(t, err)
	assert.Equal(t, plan.JobCanceled, canceled.Status)

	// Cancel is idempotent.
	again, err := b.Cancel(context.Background(), info.JobID)
	require.NoError(t, err)
	assert.Equal(t, plan.JobCanceled, again.Status)

	// A late worker skips the canceled job.
	proc := NewProcessor(blobs, table, bus, testSolver(), nil, nil)
	msgs, err := bus.Receive(context.Background(), 1, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NoError(t, proc.handle(context.Background(), msgs[0]))

	final, err := b.Get(context.Background(), info.JobID)
	require.NoError(t, err)
	assert.Equal(t, plan.JobCanceled, final.Status)
}

func TestCancelUnknownJob(t *testing.T) {
	b := NewInMemoryBackend(testSolver(), 1, nil, nil)
	defer b.Close()

	_, err := b.Cancel(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProcessorDropsPoisonMessage(t *testing.T) {
	blobs := store.NewMemBlobs()
	table := store.NewMemJobs()
	bus := store.NewMemBus()
	proc := NewProcessor(blobs, table, bus, testSolver(), nil, nil)

	assert.NoError(t, proc.handle(context.Background(), store.Message{Body: "not json"}))
}

func TestProcessorSkipsUnknownJob(t *testing.T) {
	blobs := store.NewMemBlobs()
	table := store.NewMemJobs()
	bus := store.NewMemBus()
	proc := NewProcessor(blobs, table, bus, testSolver(), nil, nil)

	body, err := encodeMessage("ghost")
	require.NoError(t, err)
	assert.NoError(t, proc.handle(context.Background(), store.Message{Body: body}))
}

func TestProcessorMissingRequestBlobFails(t *testing.T) {
	blobs := store.NewMemBlobs()
	table := store.NewMemJobs()
	bus := store.NewMemBus()
	proc := NewProcessor(blobs, table, bus, testSolver(), nil, nil)

	row := &store.JobRow{JobID: "j1", Status: plan.JobQueued, SubmittedAt: time.Now()}
	require.NoError(t, table.PutNew(context.Background(), row))
	body, err := encodeMessage("j1")
	require.NoError(t, err)
	require.NoError(t, proc.handle(context.Background(), store.Message{Body: body}))

	got, err := table.Get(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, plan.JobFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestJobStatusMapping(t *testing.T) {
	assert.Equal(t, plan.JobSucceeded, jobStatusFor(&plan.OptimizationResult{Status: plan.ResultOK}))
	assert.Equal(t, plan.JobSucceeded, jobStatusFor(&plan.OptimizationResult{Status: plan.ResultInfeasible}))
	assert.Equal(t, plan.JobTimeout, jobStatusFor(&plan.OptimizationResult{Status: plan.ResultTimeout}))
	assert.Equal(t, plan.JobFailed, jobStatusFor(&plan.OptimizationResult{Status: plan.ResultError}))
}

func TestMessageCodec(t *testing.T) {
	body, err := encodeMessage("abc")
	require.NoError(t, err)
	id, err := decodeMessage(body)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = decodeMessage("{}")
	assert.Error(t, err)
	_, err = decodeMessage("garbage")
	assert.Error(t, err)
}
