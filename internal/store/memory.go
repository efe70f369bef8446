package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/talgya/cropplan/internal/plan"
)

// In-memory implementations of the store interfaces. They back the
// single-process job backend and the durable backend's tests; the
// semantics (conditional writes, sticky terminals) mirror the AWS
// implementations exactly.

// MemBlobs is a map-backed BlobStore.
type MemBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{data: make(map[string][]byte)}
}

func (b *MemBlobs) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), data...)
	return nil
}

func (b *MemBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// MemJobs is a map-backed JobTable.
type MemJobs struct {
	mu   sync.Mutex
	rows map[string]*JobRow
}

func NewMemJobs() *MemJobs {
	return &MemJobs{rows: make(map[string]*JobRow)}
}

func (t *MemJobs) PutNew(_ context.Context, row *JobRow) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.JobID]; ok {
		return ErrAlreadyExists
	}
	cp := *row
	t.rows[row.JobID] = &cp
	return nil
}

func (t *MemJobs) Get(_ context.Context, jobID string) (*JobRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (t *MemJobs) SetRunning(_ context.Context, jobID string, startedAt time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[jobID]
	if !ok {
		return ErrNotFound
	}
	if row.CancelFlag {
		return ErrCancelRequested
	}
	if row.Status != plan.JobQueued {
		return ErrTerminal
	}
	row.Status = plan.JobRunning
	st := startedAt
	row.StartedAt = &st
	hb := startedAt
	row.LastHeartbeat = &hb
	return nil
}

func (t *MemJobs) SetProgress(_ context.Context, jobID string, progress float64, phase string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[jobID]
	if !ok {
		return ErrNotFound
	}
	if row.CancelFlag {
		return ErrCancelRequested
	}
	if row.Status != plan.JobRunning {
		return ErrTerminal
	}
	row.Progress = progress
	row.Phase = phase
	now := time.Now()
	row.LastHeartbeat = &now
	return nil
}

func (t *MemJobs) RequestCancel(_ context.Context, jobID string) (*JobRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	if !row.Status.Terminal() {
		row.CancelFlag = true
		if row.Status == plan.JobQueued {
			row.Status = plan.JobCanceled
			now := time.Now()
			row.CompletedAt = &now
		}
	}
	cp := *row
	return &cp, nil
}

func (t *MemJobs) MarkTerminal(_ context.Context, jobID string, status plan.JobStatus, resultRef, errMsg string, completedAt time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[jobID]
	if !ok {
		return ErrNotFound
	}
	if row.Status.Terminal() {
		return ErrTerminal
	}
	row.Status = status
	if resultRef != "" {
		row.ResultRef = resultRef
	}
	if errMsg != "" {
		row.ErrorMessage = errMsg
	}
	if status == plan.JobSucceeded {
		row.Progress = 1
	}
	done := completedAt
	row.CompletedAt = &done
	return nil
}

// MemBus is a channel-backed MessageBus.
type MemBus struct {
	mu     sync.Mutex
	queue  []Message
	nextID int
}

func NewMemBus() *MemBus {
	return &MemBus{}
}

func (b *MemBus) Send(_ context.Context, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.queue = append(b.queue, Message{Body: body, Handle: "m" + strconv.Itoa(b.nextID)})
	return nil
}

func (b *MemBus) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	deadline := time.Now().Add(wait)
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			n := max
			if n > len(b.queue) {
				n = len(b.queue)
			}
			out := append([]Message(nil), b.queue[:n]...)
			b.queue = b.queue[n:]
			b.mu.Unlock()
			return out, nil
		}
		b.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (b *MemBus) Delete(_ context.Context, _ string) error { return nil }
