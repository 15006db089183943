package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/jobs"
)

// waitForStatus polls the store until the job reaches want.
func waitForStatus(t *testing.T, s *Store, id string, want jobs.JobStatus) *jobs.AnalyzeJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.GetJob(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := s.GetJob(context.Background(), id)
	t.Fatalf("job %s never reached %s, last state %+v", id, want, job)
	return nil
}

func TestQueue_ProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)

	var inFlight, maxInFlight int32
	handler := func(ctx context.Context, job *jobs.AnalyzeJob) error {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)

		if job.Input == "fail" {
			return errors.New("boom")
		}
		job.BatchID = "batch-" + job.Input
		return store.UpdateProgress(ctx, job.JobID, 3, 3)
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Stop(context.Background())

	ok := &jobs.AnalyzeJob{Input: "a"}
	bad := &jobs.AnalyzeJob{Input: "fail"}
	extra := &jobs.AnalyzeJob{Input: "b"}
	for _, j := range []*jobs.AnalyzeJob{ok, bad, extra} {
		if err := q.PublishAnalyze(ctx, j); err != nil {
			t.Fatalf("PublishAnalyze failed: %v", err)
		}
		if j.JobID == "" {
			t.Fatal("job ID not assigned")
		}
	}

	done := waitForStatus(t, store, ok.JobID, jobs.JobStatusCompleted)
	if done.BatchID != "batch-a" || done.Done != 3 || done.CompletedAt == nil {
		t.Errorf("unexpected completed job %+v", done)
	}
	failed := waitForStatus(t, store, bad.JobID, jobs.JobStatusFailed)
	if failed.Error != "boom" {
		t.Errorf("Error = %q", failed.Error)
	}
	waitForStatus(t, store, extra.JobID, jobs.JobStatusCompleted)

	if atomic.LoadInt32(&maxInFlight) != 1 {
		t.Errorf("jobs ran concurrently: max in flight %d", maxInFlight)
	}
}

func TestQueue_CancelRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)

	started := make(chan struct{})
	handler := func(ctx context.Context, job *jobs.AnalyzeJob) error {
		close(started)
		<-ctx.Done()
		job.BatchID = "partial"
		return ctx.Err()
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Stop(context.Background())

	job := &jobs.AnalyzeJob{Input: "x", UseAI: true}
	if err := q.PublishAnalyze(ctx, job); err != nil {
		t.Fatalf("PublishAnalyze failed: %v", err)
	}
	<-started

	if !q.Cancel(job.JobID) {
		t.Fatal("Cancel should find the running job")
	}
	got := waitForStatus(t, store, job.JobID, jobs.JobStatusCancelled)
	if got.BatchID != "partial" {
		t.Errorf("cancelled job should keep its partial batch, got %q", got.BatchID)
	}
	if q.Cancel(job.JobID) {
		t.Error("cancelling a finished job should report false")
	}
}

func TestQueue_CancelPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)

	release := make(chan struct{})
	var ran int32
	handler := func(ctx context.Context, job *jobs.AnalyzeJob) error {
		if job.Input == "first" {
			<-release
		} else {
			atomic.AddInt32(&ran, 1)
		}
		return nil
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Stop(context.Background())

	first := &jobs.AnalyzeJob{Input: "first"}
	second := &jobs.AnalyzeJob{Input: "second"}
	_ = q.PublishAnalyze(ctx, first)
	waitForStatus(t, store, first.JobID, jobs.JobStatusRunning)
	_ = q.PublishAnalyze(ctx, second)

	if !q.Cancel(second.JobID) {
		t.Fatal("Cancel should find the pending job")
	}
	close(release)

	waitForStatus(t, store, first.JobID, jobs.JobStatusCompleted)
	waitForStatus(t, store, second.JobID, jobs.JobStatusCancelled)
	if atomic.LoadInt32(&ran) != 0 {
		t.Error("cancelled pending job must not run")
	}
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := q.PublishAnalyze(context.Background(), &jobs.AnalyzeJob{}); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.SaveJob(ctx, &jobs.AnalyzeJob{}); err == nil {
		t.Error("expected error for missing ID")
	}

	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = s.SaveJob(ctx, &jobs.AnalyzeJob{JobID: id, Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	_ = s.UpdateJobStatus(ctx, "b", jobs.JobStatusFailed, "nope")

	all, _ := s.ListJobs(ctx, jobs.JobFilter{})
	if len(all) != 3 || all[0].JobID != "c" {
		t.Errorf("ListJobs should be newest first, got %v", all)
	}
	failed, _ := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if len(failed) != 1 || failed[0].Error != "nope" {
		t.Errorf("status filter = %+v", failed)
	}
	page, _ := s.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 1})
	if len(page) != 1 || page[0].JobID != "b" {
		t.Errorf("pagination = %+v", page)
	}

	got, _ := s.GetJob(ctx, "a")
	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "a")
	if again.Status != jobs.JobStatusPending {
		t.Error("GetJob must return a copy")
	}

	if _, err := s.GetJob(ctx, "zzz"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if err := s.UpdateProgress(ctx, "zzz", 1, 2); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	failedJob, _ := s.GetJob(ctx, "b")
	if failedJob.CompletedAt == nil {
		t.Error("terminal status should stamp CompletedAt")
	}
	if err := s.UpdateJobStatus(ctx, "b", jobs.JobStatusRunning, ""); err == nil {
		t.Error("finished jobs must not change status")
	}
	if page, _ := s.ListJobs(ctx, jobs.JobFilter{Offset: 5}); len(page) != 0 {
		t.Errorf("offset past end = %v", page)
	}
}
