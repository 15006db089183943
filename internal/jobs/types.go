package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeAnalyze turns pasted statement text into a review batch.
	JobTypeAnalyze JobType = "analyze"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the user stopped the job.
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job will not change status again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

var (
	// ErrJobNotFound is returned when no job has the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)

// AnalyzeJob represents a request to analyze statement text in the
// background, optionally with the AI pass.
type AnalyzeJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Input is the pasted statement text.
	Input string `json:"-"`

	// UseAI enables the classifier pass for uncategorized drafts.
	UseAI bool `json:"use_ai"`

	// Model overrides the classifier's default model.
	Model string `json:"model,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// BatchID points at the review batch produced by the job. It is set even
	// when the AI pass was cancelled part way.
	BatchID string `json:"batch_id,omitempty"`

	// Done and Total track AI classification progress.
	Done  int `json:"done"`
	Total int `json:"total"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job finished, whatever the outcome.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *AnalyzeJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *AnalyzeJob) GetType() JobType {
	return JobTypeAnalyze
}

// GetStatus implements the Job interface.
func (j *AnalyzeJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishAnalyze enqueues an analysis job.
	PublishAnalyze(ctx context.Context, job *AnalyzeJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// Canceller stops a pending or running job.
type Canceller interface {
	// Cancel reports whether a job with that ID was pending or running.
	Cancel(jobID string) bool
}

// JobHandler processes a job. The context is cancelled when the job is.
type JobHandler func(ctx context.Context, job *AnalyzeJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *AnalyzeJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*AnalyzeJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyzeJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error

	// UpdateProgress records how many drafts the AI pass has handled.
	UpdateProgress(ctx context.Context, jobID string, done, total int) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
