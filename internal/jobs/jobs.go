// Package jobs orchestrates asynchronous optimization runs: enqueue,
// status, cancel, and the worker side that executes them. One backend
// implementation covers both deployment shapes; it is assembled either
// from in-memory stores with an in-process worker, or from
// S3/DynamoDB/SQS with a separate worker binary.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/store"
)

// Backend is the API-facing job surface.
type Backend interface {
	// Enqueue accepts a request and returns the queued job.
	Enqueue(ctx context.Context, req *plan.OptimizationRequest) (*plan.JobInfo, error)

	// Get returns the job's current state, with the result attached
	// once the job succeeded. store.ErrNotFound when unknown.
	Get(ctx context.Context, jobID string) (*plan.JobInfo, error)

	// Cancel requests cancellation. Idempotent: canceling a terminal
	// job returns its state unchanged.
	Cancel(ctx context.Context, jobID string) (*plan.JobInfo, error)
}

// queueMessage is the bus payload.
type queueMessage struct {
	JobID string `json:"job_id"`
}

func encodeMessage(jobID string) (string, error) {
	data, err := json.Marshal(queueMessage{JobID: jobID})
	if err != nil {
		return "", fmt.Errorf("encode queue message: %w", err)
	}
	return string(data), nil
}

func decodeMessage(body string) (string, error) {
	var msg queueMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return "", fmt.Errorf("decode queue message: %w", err)
	}
	if msg.JobID == "" {
		return "", fmt.Errorf("queue message carries no job id")
	}
	return msg.JobID, nil
}

// jobStatusFor maps a run outcome to the job's terminal status.
// Infeasible runs are successful jobs with an in-band result status.
func jobStatusFor(res *plan.OptimizationResult) plan.JobStatus {
	switch res.Status {
	case plan.ResultOK, plan.ResultInfeasible:
		return plan.JobSucceeded
	case plan.ResultTimeout:
		return plan.JobTimeout
	default:
		return plan.JobFailed
	}
}

// infoFromRow projects a stored row into the wire shape. The result
// payload is attached by the caller when available.
func infoFromRow(row *store.JobRow) *plan.JobInfo {
	return &plan.JobInfo{
		JobID:       row.JobID,
		Status:      row.Status,
		Progress:    row.Progress,
		SubmittedAt: row.SubmittedAt,
		CompletedAt: row.CompletedAt,
	}
}
