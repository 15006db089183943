package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/logger"
)

// Queue is an in-memory implementation of job publisher and consumer.
// It runs exactly one worker, so AI classification requests are never
// issued concurrently. Jobs are not retried; the classifier retries its own
// timeouts.
type Queue struct {
	jobChan   chan *jobs.AnalyzeJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
	started   bool

	cancelMu  sync.Mutex
	running   map[string]context.CancelFunc
	cancelled map[string]bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishAnalyze blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.AnalyzeJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		running:   make(map[string]context.CancelFunc),
		cancelled: make(map[string]bool),
	}
}

// PublishAnalyze implements the Publisher interface.
func (q *Queue) PublishAnalyze(ctx context.Context, job *jobs.AnalyzeJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	// Enqueue job with context cancellation support
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements the Consumer interface. It launches the single worker.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx, handler)
	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job.
func (q *Queue) processJob(ctx context.Context, job *jobs.AnalyzeJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q.cancelMu.Lock()
	if q.cancelled[job.JobID] {
		delete(q.cancelled, job.JobID)
		q.cancelMu.Unlock()
		q.finish(ctx, job, jobs.JobStatusCancelled, "")
		return
	}
	q.running[job.JobID] = cancel
	q.cancelMu.Unlock()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	log.Info().Str("job_id", job.JobID).Bool("use_ai", job.UseAI).Msg("Processing analyze job")
	err := handler(jobCtx, job)

	q.cancelMu.Lock()
	delete(q.running, job.JobID)
	wasCancelled := q.cancelled[job.JobID]
	delete(q.cancelled, job.JobID)
	q.cancelMu.Unlock()

	switch {
	case wasCancelled:
		q.finish(ctx, job, jobs.JobStatusCancelled, "")
	case err != nil:
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Analyze job failed")
		q.finish(ctx, job, jobs.JobStatusFailed, err.Error())
	default:
		q.finish(ctx, job, jobs.JobStatusCompleted, "")
	}
}

func (q *Queue) finish(ctx context.Context, job *jobs.AnalyzeJob, status jobs.JobStatus, errMsg string) {
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.Status = status
	job.Error = errMsg

	if q.store != nil {
		// Progress is written straight to the store by the handler.
		if stored, err := q.store.GetJob(ctx, job.JobID); err == nil {
			job.Done, job.Total = stored.Done, stored.Total
		}
		_ = q.store.SaveJob(ctx, job)
	}
}

// Cancel implements jobs.Canceller. A running job has its context
// cancelled; a pending job is marked and skipped when dequeued.
func (q *Queue) Cancel(jobID string) bool {
	q.cancelMu.Lock()
	defer q.cancelMu.Unlock()

	if cancel, ok := q.running[jobID]; ok {
		q.cancelled[jobID] = true
		cancel()
		return true
	}

	if q.store == nil {
		return false
	}
	job, err := q.store.GetJob(context.Background(), jobID)
	if err != nil || job.Status != jobs.JobStatusPending {
		return false
	}
	q.cancelled[jobID] = true
	_ = q.store.UpdateJobStatus(context.Background(), jobID, jobs.JobStatusCancelled, "")
	return true
}

// Stop implements the Consumer interface.
// It stops the queue and waits for the worker to finish its current job.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements the queue interfaces.
var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
	_ jobs.Canceller = (*Queue)(nil)
)
