package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/store"
)

// StoreBackend drives jobs through a BlobStore, JobTable and
// MessageBus. The request payload lands in the blob store before the
// row or the message exist, so a worker that sees a message can always
// load its request.
type StoreBackend struct {
	blobs   store.BlobStore
	table   store.JobTable
	bus     store.MessageBus
	journal *Journal
	ttl     time.Duration
	log     *slog.Logger
}

// NewStoreBackend assembles a backend from its stores. journal may be
// nil; ttl bounds row retention for the table's TTL attribute.
func NewStoreBackend(blobs store.BlobStore, table store.JobTable, bus store.MessageBus, journal *Journal, ttl time.Duration, log *slog.Logger) *StoreBackend {
	if log == nil {
		log = slog.Default()
	}
	return &StoreBackend{blobs: blobs, table: table, bus: bus, journal: journal, ttl: ttl, log: log}
}

func (b *StoreBackend) Enqueue(ctx context.Context, req *plan.OptimizationRequest) (*plan.JobInfo, error) {
	jobID := uuid.NewString()
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	reqKey := store.RequestKey(jobID)
	if err := b.blobs.Put(ctx, reqKey, payload); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &store.JobRow{
		JobID:       jobID,
		Status:      plan.JobQueued,
		IdemKey:     req.IdempotencyKey,
		RequestRef:  reqKey,
		SubmittedAt: now,
		ExpiresAt:   now.Add(b.ttl),
	}
	if err := b.table.PutNew(ctx, row); err != nil {
		return nil, err
	}
	b.journal.Record(row)

	body, err := encodeMessage(jobID)
	if err != nil {
		return nil, err
	}
	if err := b.bus.Send(ctx, body); err != nil {
		// The row stays queued; a reaper or retry can resend. Surface
		// the failure so the client does not wait on a dead job.
		return nil, fmt.Errorf("enqueue %s: %w", jobID, err)
	}

	b.log.Info("job enqueued", "job_id", jobID, "idem_key", req.IdempotencyKey)
	return infoFromRow(row), nil
}

func (b *StoreBackend) Get(ctx context.Context, jobID string) (*plan.JobInfo, error) {
	row, err := b.table.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	info := infoFromRow(row)

	if row.Status == plan.JobSucceeded && row.ResultRef != "" {
		data, err := b.blobs.Get(ctx, row.ResultRef)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				b.log.Warn("result blob missing", "job_id", jobID, "ref", row.ResultRef)
				return info, nil
			}
			return nil, err
		}
		var res plan.OptimizationResult
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", jobID, err)
		}
		info.Result = &res
	}
	return info, nil
}

func (b *StoreBackend) Cancel(ctx context.Context, jobID string) (*plan.JobInfo, error) {
	row, err := b.table.RequestCancel(ctx, jobID)
	if err != nil {
		return nil, err
	}
	b.journal.Update(row)
	b.log.Info("job cancel requested", "job_id", jobID, "status", string(row.Status))
	return infoFromRow(row), nil
}
