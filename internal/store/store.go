// Package store abstracts the durable job plumbing: blob payloads,
// the job state table and the work queue. Implementations exist for
// S3/DynamoDB/SQS and for in-memory fakes used by tests and the
// single-process backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/talgya/cropplan/internal/plan"
)

var (
	// ErrNotFound reports a missing blob or job row.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports a duplicate job id on insert.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCancelRequested reports that a progress write was rejected
	// because the job's cancel flag is set.
	ErrCancelRequested = errors.New("cancel requested")

	// ErrTerminal reports a write against a job already in a terminal
	// status.
	ErrTerminal = errors.New("job is terminal")
)

// JobRow is the durable state of one job.
type JobRow struct {
	JobID        string
	Status       plan.JobStatus
	Progress     float64
	Phase        string
	CancelFlag   bool
	IdemKey      string
	RequestRef   string
	ResultRef    string
	ErrorMessage string

	SubmittedAt   time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	LastHeartbeat *time.Time
	ExpiresAt     time.Time
}

// BlobStore stores request and result payloads by key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// JobTable is the job state machine's persistence. Writes are
// conditional so concurrent workers and cancel requests cannot corrupt
// a row: progress writes fail with ErrCancelRequested once the cancel
// flag is set, and terminal statuses are sticky.
type JobTable interface {
	// PutNew inserts a fresh row, failing with ErrAlreadyExists when
	// the job id is taken.
	PutNew(ctx context.Context, row *JobRow) error

	Get(ctx context.Context, jobID string) (*JobRow, error)

	// SetRunning transitions queued → running.
	SetRunning(ctx context.Context, jobID string, startedAt time.Time) error

	// SetProgress updates progress and phase, refusing with
	// ErrCancelRequested when the cancel flag is set.
	SetProgress(ctx context.Context, jobID string, progress float64, phase string) error

	// RequestCancel sets the cancel flag; a still-queued job moves
	// straight to canceled. Terminal jobs are left untouched. The
	// updated row is returned.
	RequestCancel(ctx context.Context, jobID string) (*JobRow, error)

	// MarkTerminal finishes the job. ErrTerminal when already finished.
	MarkTerminal(ctx context.Context, jobID string, status plan.JobStatus, resultRef, errMsg string, completedAt time.Time) error
}

// Message is one queued work item.
type Message struct {
	Body   string
	Handle string
}

// MessageBus is the work queue between the API and the workers.
type MessageBus interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)
	Delete(ctx context.Context, handle string) error
}

// RequestKey is the blob key of a job's request payload.
func RequestKey(jobID string) string { return "requests/" + jobID + ".json" }

// ResultKey is the blob key of a job's result payload.
func ResultKey(jobID string) string { return "results/" + jobID + ".json" }
