package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
)

// InMemoryBackend runs jobs inside the API process: memory-backed
// stores plus an embedded processor. Same semantics as the durable
// shape, no external services.
type InMemoryBackend struct {
	*StoreBackend
	cancel context.CancelFunc
	done   chan struct{}
}

// NewInMemoryBackend starts the embedded worker pool.
func NewInMemoryBackend(solver *planner.Solver, workers int, journal *Journal, log *slog.Logger) *InMemoryBackend {
	blobs := store.NewMemBlobs()
	table := store.NewMemJobs()
	bus := store.NewMemBus()

	backend := NewStoreBackend(blobs, table, bus, journal, 24*time.Hour, log)
	proc := NewProcessor(blobs, table, bus, solver, journal, log)
	proc.Concurrency = workers
	proc.PollWait = 200 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = proc.Run(ctx)
	}()

	return &InMemoryBackend{StoreBackend: backend, cancel: cancel, done: done}
}

// Close stops the worker pool and waits for in-flight jobs to unwind.
func (b *InMemoryBackend) Close() error {
	b.cancel()
	<-b.done
	return nil
}
