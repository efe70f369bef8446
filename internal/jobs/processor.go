package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
)

// Processor is the worker side: it drains the bus and executes jobs.
// Cancellation is cooperative; every progress write doubles as a
// cancel check because the table rejects progress once the flag is up.
type Processor struct {
	blobs   store.BlobStore
	table   store.JobTable
	bus     store.MessageBus
	solver  *planner.Solver
	journal *Journal
	log     *slog.Logger

	// Concurrency is the number of jobs executed in parallel.
	Concurrency int

	// PollWait is the long-poll duration per receive.
	PollWait time.Duration
}

// NewProcessor wires a worker over the given stores.
func NewProcessor(blobs store.BlobStore, table store.JobTable, bus store.MessageBus, solver *planner.Solver, journal *Journal, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		blobs:       blobs,
		table:       table,
		bus:         bus,
		solver:      solver,
		journal:     journal,
		log:         log,
		Concurrency: 1,
		PollWait:    10 * time.Second,
	}
}

// Run drains the bus until the context is canceled.
func (p *Processor) Run(ctx context.Context) error {
	n := p.Concurrency
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (p *Processor) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := p.bus.Receive(ctx, 1, p.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("receive failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			if err := p.handle(ctx, msg); err != nil {
				p.log.Error("job handling failed", "error", err)
				continue
			}
			if err := p.bus.Delete(ctx, msg.Handle); err != nil {
				p.log.Error("message delete failed", "error", err)
			}
		}
	}
}

// handle executes one job end to end. A nil return deletes the
// message; errors leave it for redelivery.
func (p *Processor) handle(ctx context.Context, msg store.Message) error {
	jobID, err := decodeMessage(msg.Body)
	if err != nil {
		// Poison message: log and drop.
		p.log.Error("bad queue message", "body", msg.Body, "error", err)
		return nil
	}
	log := p.log.With("job_id", jobID)

	err = p.table.SetRunning(ctx, jobID, time.Now().UTC())
	switch {
	case errors.Is(err, store.ErrCancelRequested):
		p.finish(ctx, jobID, plan.JobCanceled, "", "canceled before start")
		return nil
	case errors.Is(err, store.ErrTerminal):
		// Redelivered message for a finished job.
		return nil
	case errors.Is(err, store.ErrNotFound):
		log.Warn("message for unknown job")
		return nil
	case err != nil:
		return err
	}

	req, err := p.loadRequest(ctx, jobID)
	if err != nil {
		p.finish(ctx, jobID, plan.JobFailed, "", err.Error())
		return nil
	}

	progress := func(fraction float64, phase string) error {
		err := p.table.SetProgress(ctx, jobID, fraction, phase)
		if errors.Is(err, store.ErrCancelRequested) {
			return planner.ErrCanceled
		}
		if err != nil {
			// A flaky progress write must not kill the run.
			log.Warn("progress write failed", "error", err)
		}
		return nil
	}

	res, err := p.solver.Solve(req, progress)
	if errors.Is(err, planner.ErrCanceled) {
		log.Info("job canceled mid-run")
		p.finish(ctx, jobID, plan.JobCanceled, "", "canceled")
		return nil
	}
	if err != nil {
		p.finish(ctx, jobID, plan.JobFailed, "", err.Error())
		return nil
	}

	resultRef := ""
	if data, err := json.Marshal(res); err == nil {
		resultRef = store.ResultKey(jobID)
		if putErr := p.blobs.Put(ctx, resultRef, data); putErr != nil {
			log.Error("result write failed", "error", putErr)
			p.finish(ctx, jobID, plan.JobFailed, "", "result write failed")
			return nil
		}
	}

	errMsg := ""
	if len(res.Warnings) > 0 && res.Status != plan.ResultOK {
		errMsg = res.Warnings[0]
	}
	p.finish(ctx, jobID, jobStatusFor(res), resultRef, errMsg)
	log.Info("job finished", "status", string(res.Status))
	return nil
}

func (p *Processor) loadRequest(ctx context.Context, jobID string) (*plan.OptimizationRequest, error) {
	data, err := p.blobs.Get(ctx, store.RequestKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	var req plan.OptimizationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

func (p *Processor) finish(ctx context.Context, jobID string, status plan.JobStatus, resultRef, errMsg string) {
	err := p.table.MarkTerminal(ctx, jobID, status, resultRef, errMsg, time.Now().UTC())
	if err != nil && !errors.Is(err, store.ErrTerminal) {
		p.log.Error("terminal write failed", "job_id", jobID, "error", err)
		return
	}
	if row, gerr := p.table.Get(ctx, jobID); gerr == nil {
		p.journal.Update(row)
	}
}
