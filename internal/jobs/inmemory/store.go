package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/jobs"
)

// Store keeps analyze jobs in a map. It is safe for concurrent use and
// forgets everything on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.AnalyzeJob
	now  func() time.Time
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.AnalyzeJob),
		now:  time.Now,
	}
}

// clone copies j so callers never share the stored pointer.
func clone(j *jobs.AnalyzeJob) *jobs.AnalyzeJob {
	c := *j
	return &c
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.AnalyzeJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}
	s.mu.Lock()
	s.jobs[job.JobID] = clone(job)
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.AnalyzeJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %s: %w", jobID, jobs.ErrJobNotFound)
	}
	return clone(job), nil
}

// ListJobs returns matching jobs newest first, ties broken by ID.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.AnalyzeJob, error) {
	s.mu.RLock()
	matched := make([]*jobs.AnalyzeJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Status == "" || job.Status == filter.Status {
			matched = append(matched, clone(job))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.JobID < b.JobID
	})
	return paginate(matched, filter.Offset, filter.Limit), nil
}

func paginate(list []*jobs.AnalyzeJob, offset, limit int) []*jobs.AnalyzeJob {
	if offset >= len(list) {
		return []*jobs.AnalyzeJob{}
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// UpdateJobStatus moves a job to status. Finished jobs are frozen, and a
// move into a terminal status stamps CompletedAt.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %s: %w", jobID, jobs.ErrJobNotFound)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("UpdateJobStatus: %s is already %s", jobID, job.Status)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if status.Terminal() && job.CompletedAt == nil {
		t := s.now()
		job.CompletedAt = &t
	}
	return nil
}

func (s *Store) UpdateProgress(ctx context.Context, jobID string, done, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateProgress: %s: %w", jobID, jobs.ErrJobNotFound)
	}
	job.Done, job.Total = done, total
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
