package plan

import "time"

// ResultStatus is the terminal status of one optimization run.
type ResultStatus string

const (
	ResultOK         ResultStatus = "ok"
	ResultInfeasible ResultStatus = "infeasible"
	ResultTimeout    ResultStatus = "timeout"
	ResultError      ResultStatus = "error"
)

// JobStatus is the lifecycle state of an asynchronous job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobTimeout   JobStatus = "timeout"
	JobCanceled  JobStatus = "canceled"
)

// Terminal reports whether the status is sticky: no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobTimeout, JobCanceled:
		return true
	}
	return false
}

// OptimizationRequest is the body of POST /v1/optimize[/async].
type OptimizationRequest struct {
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
	Plan           *APIPlan `json:"plan"`
	TimeoutMs      int      `json:"timeout_ms,omitempty"`
	Priority       *int     `json:"priority,omitempty"`
}

// OptimizationResult is the outcome of one run. Infeasibility and
// timeouts are in-band statuses, not errors.
type OptimizationResult struct {
	Status         ResultStatus   `json:"status"`
	ObjectiveValue *float64       `json:"objective_value"`
	Solution       map[string]any `json:"solution"`
	Stats          map[string]any `json:"stats"`
	Warnings       []string       `json:"warnings"`
	Timeline       *Timeline      `json:"timeline,omitempty"`
}

// JobInfo is the externally visible state of an async job.
type JobInfo struct {
	JobID       string              `json:"job_id"`
	Status      JobStatus           `json:"status"`
	Progress    float64             `json:"progress"`
	Result      *OptimizationResult `json:"result,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// Timeline is the Gantt-oriented view of a solution. Day indices are
// 0-based at this layer.
type Timeline struct {
	LandSpans   []LandSpan                   `json:"land_spans"`
	Events      []TimelineEvent              `json:"events"`
	EntityNames map[string]map[string]string `json:"entity_names"`
	StartDate   string                       `json:"start_date,omitempty"`
}

// LandSpan is a run of consecutive days with constant planted area for
// one (land, crop) pair.
type LandSpan struct {
	LandID   string  `json:"land_id"`
	CropID   string  `json:"crop_id"`
	StartDay int     `json:"start_day"`
	EndDay   int     `json:"end_day"`
	Area     float64 `json:"area_a"`
}

// TimelineEvent is a single event firing with its attributions.
type TimelineEvent struct {
	Day            int             `json:"day"`
	EventID        string          `json:"event_id"`
	CropID         string          `json:"crop_id"`
	LandIDs        []string        `json:"land_ids"`
	WorkerUsages   []WorkerUsage   `json:"worker_usages"`
	ResourceUsages []ResourceUsage `json:"resource_usages"`
	EventName      string          `json:"event_name,omitempty"`
}

// WorkerUsage is hours spent by one worker on one firing.
type WorkerUsage struct {
	WorkerID string  `json:"worker_id"`
	Hours    float64 `json:"hours"`
}

// ResourceUsage is pooled-resource consumption by one firing.
type ResourceUsage struct {
	ResourceID string  `json:"resource_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}
